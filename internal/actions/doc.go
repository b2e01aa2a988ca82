// Package actions implements the recipe actions the suite ships with:
// create_tank, create_tank_family, convert_model_to_glb and convert_image.
//
// Each action validates and canonicalizes its parameters when the recipe is
// compiled, and every artifact it produces is published with a provenance
// sidecar pair through a Publisher.
package actions
