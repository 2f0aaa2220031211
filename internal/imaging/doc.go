// Package imaging is the in-process decode/probe collaborator. It validates
// and measures image content with the standard library codecs plus the
// golang.org/x/image webp, bmp, and tiff decoders, and wraps the content in a
// display handle.
package imaging
