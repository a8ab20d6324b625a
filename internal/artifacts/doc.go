// Package artifacts resolves and collects the mesh files a job produces.
//
// The coupling between submission and collection is a naming contract, not a
// return value: the service writes every output of a job into its shared
// output directory with the item's base name as filename prefix, optionally
// followed by "_<Variant>" (a stage label such as Textured) and a rolling
// counter like "_00001_". Resolution therefore matches strictly — a file
// belongs to stem "b" only when its counter-stripped base is exactly "b" or
// starts with "b_" — so artifacts from other items (or "b2") can never leak
// into the set.
package artifacts
