package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"modsuite/internal/ledger"
	"modsuite/internal/units"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minBytes available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	avail := st.Bavail * uint64(st.Bsize)
	detail := fmt.Sprintf("%s (%s free)", path, humanBytes(avail))
	if avail < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s, need %s", detail, humanBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckLedger opens the ledger at path, applying pending migrations.
func CheckLedger(ctx context.Context, path string) Result {
	const name = "Ledger"
	store, err := ledger.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	versions, err := store.Migrations(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d migrations)", filepath.Base(path), len(versions))}
}

// CheckProfile verifies that id names a registered unit profile.
func CheckProfile(id string) Result {
	const name = "Scale profile"
	p, err := units.Lookup(id)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%q is not registered", id)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", p.ID, p.Name)}
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
