package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"modsuite/internal/actions"
	"modsuite/internal/geometry"
	"modsuite/internal/manifest"
	"modsuite/internal/sidecar"
	"modsuite/internal/workflow"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Build, inspect, and verify provenance sidecars",
	}
	cmd.AddCommand(newManifestBuildCommand(ctx))
	cmd.AddCommand(newManifestInspectCommand())
	cmd.AddCommand(newManifestVerifyCommand())
	cmd.AddCommand(newManifestSchemaCommand())
	return cmd
}

func newManifestBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		action  string
		params  []string
		input   string
		source  string
		profile string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "build <artifact>",
		Short: "Write a sidecar pair for an existing artifact",
		Long: "Hash the artifact and write <artifact>.ams.json (and .ams.yaml unless\n" +
			"manifest.write_yaml is false). Mesh files also get a geometry block.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.baseLogger()
			if err != nil {
				return err
			}
			resolver, err := resolverFor(cfg, profile)
			if err != nil {
				return err
			}
			parameters, err := parseParams(params)
			if err != nil {
				return err
			}
			store, err := openLedger(cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			artifact := args[0]
			art := actions.Artifact{
				Path:        artifact,
				Action:      action,
				Parameters:  parameters,
				SourceKind:  manifest.SourceKind(strings.ToLower(strings.TrimSpace(source))),
				SourceInput: input,
			}
			if geometry.Supported(artifact) {
				mesh, err := geometry.Load(artifact)
				if err != nil {
					return err
				}
				box, err := mesh.Bounds()
				if err != nil {
					return err
				}
				art.Bounds = &box
			}

			pub := newPublisher(cfg, resolver, logger, store)
			rec, err := pub.Publish(cmd.Context(), workflow.RunContext{Profile: resolver.Default()}, art)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, rec)
			}
			jsonPath, yamlPath := sidecar.Paths(artifact)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Manifest %s\n", rec.AMSID)
			fmt.Fprintf(out, "  %s\n", jsonPath)
			if cfg.Manifest.WriteYAML {
				fmt.Fprintf(out, "  %s\n", yamlPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", "", "Conversion action to record")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Conversion parameter as key=value (repeatable)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Source input the artifact was derived from")
	cmd.Flags().StringVar(&source, "source", "", "Source type: generated, converted, or imported")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Scale profile to record")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the record as JSON")
	return cmd
}

// parseParams turns key=value pairs into conversion parameters. Values that
// parse as booleans or numbers keep that type.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", pair)
		}
		out[key] = parseParamValue(strings.TrimSpace(value))
	}
	return out, nil
}

func parseParamValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

func newManifestInspectCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:         "inspect <path>",
		Short:       "Summarize the sidecar describing an artifact",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			located, ok := sidecar.Locate(args[0])
			if !ok {
				return fmt.Errorf("no sidecar found for %s", args[0])
			}
			sc, err := sidecar.Read(located)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, sc.Record)
			}

			out := cmd.OutOrStdout()
			rec := sc.Record
			fmt.Fprintf(out, "Sidecar: %s (%s)\n", sc.Path, sc.Format)
			rows := [][]string{
				{"AMS ID", rec.AMSID},
				{"Created", rec.CreatedOn},
				{"Created by", strings.TrimSpace(rec.CreatedBy + "@" + rec.Host)},
				{"Tool", rec.ToolVersion},
				{"Scale", fmt.Sprintf("%s (%s)", rec.Scale.ProfileID, rec.Scale.Unit)},
				{"Source", describeSource(rec.Source)},
				{"Output", fmt.Sprintf("%s (%d bytes)", rec.Output.FilePath, rec.Output.FileSize)},
				{"SHA-256", rec.Output.FileSHA256},
			}
			if rec.Geometry != nil {
				rows = append(rows, []string{"Extents", formatVec(rec.Geometry.Extents) + " " + rec.Geometry.Units})
			}
			if rec.Conversion != nil {
				rows = append(rows, []string{"Action", rec.Conversion.Action})
			}
			if len(rec.Tags) > 0 {
				rows = append(rows, []string{"Tags", strings.Join(rec.Tags, ", ")})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
			if !sc.Complete() {
				fmt.Fprintln(out, renderStatusLine("Missing keys", statusWarn, strings.Join(sc.Missing, ", "), shouldColorize(out)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full record as JSON")
	return cmd
}

func describeSource(src manifest.Source) string {
	parts := []string{string(src.Type)}
	if src.InputPath != nil {
		parts = append(parts, "from "+*src.InputPath)
	}
	if src.RecipeFile != nil {
		step := ""
		if src.RecipeStep != nil {
			step = fmt.Sprintf(" step %d", *src.RecipeStep)
		}
		parts = append(parts, fmt.Sprintf("recipe %s%s", *src.RecipeFile, step))
	}
	return strings.Join(parts, ", ")
}

func formatVec(v [3]float64) string {
	return fmt.Sprintf("%.4g x %.4g x %.4g", v[0], v[1], v[2])
}

func newManifestVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "verify <path>...",
		Short:       "Check artifacts against their recorded digests",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			bad := 0
			for _, path := range args {
				v, err := sidecar.Verify(path)
				switch {
				case err != nil:
					bad++
					fmt.Fprintln(out, renderStatusLine(path, statusError, err.Error(), colorize))
				case v.Match():
					fmt.Fprintln(out, renderStatusLine(path, statusOK, v.ActualSHA256, colorize))
				default:
					bad++
					fmt.Fprintln(out, renderStatusLine(path, statusError,
						fmt.Sprintf("changed (recorded %d bytes, now %d bytes)", v.ExpectedSize, v.ActualSize), colorize))
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d artifacts failed verification", bad, len(args))
			}
			return nil
		},
	}
}

func newManifestSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "schema",
		Short:       "Print the JSON Schema for manifest records",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := manifest.JSONSchema()
			if err != nil {
				return err
			}
			return writeRawJSON(cmd, data)
		},
	}
}
