// Package hcl_adapter loads a plant model written in HCL. A single file, or
// every .hcl file under a directory, may hold the technology, plant and
// driver blocks; custom model locations are resolved against the directory
// of the file that names them.
package hcl_adapter
