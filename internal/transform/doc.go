// Package transform describes what a conversion run asks the conversion
// service to do: the target format catalog and the shared transform options
// applied to every item in a run.
//
// Options carry TOML tags so configuration files can supply defaults, and
// Fields renders them in the order the service's multipart form expects.
package transform
