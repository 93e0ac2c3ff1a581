// Package manifest reads and writes package manifests.
//
// A manifest lives at the root of each package directory, either as
// package.yaml (the default) or package.toml. It declares the package's
// dependencies and how it is linked into and out of other packages:
//
//	links:
//	  imports: deps
//	  exports: src
//	  internals:
//	    - source: src/shared
//	      target: app/shared
//	dependencies:
//	  - repo: https://example.com/org/core.git
//	    branch: master
//	    commit: 4b825dc642cb6eb9a060e54bf8d69288fbee4904
//
// Exports may also be a mapping of names to paths; each entry is linked
// separately under the importer's dependency directory.
//
// # Conflicts
//
// Manifests are versioned with the package and may be left with
// merge-conflict markers after a failed merge. [Store.Read] resolves every
// conflict block to our side in memory and sets [Manifest.Conflicted];
// [Store.ResolveFile] rewrites the file itself with the chosen side.
//
// # Formats
//
// Each on-disk format is a [Codec]. [DetectCodec] picks the codec from the
// file name:
//
//	codec, _ := manifest.DetectCodec("package.toml", manifest.DefaultCodecs()...)
//	doc, _ := codec.Decode(data)
package manifest
