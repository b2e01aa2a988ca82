// Package geometry holds the mesh collaborators used by the tank and model
// conversion actions.
//
// Meshes are indexed triangle lists in meters. Capsule builds the tank shape,
// WriteGLB serializes a mesh as binary glTF, and Load reads OBJ, STL, glTF and
// GLB inputs into a single merged mesh with node transforms applied.
package geometry
