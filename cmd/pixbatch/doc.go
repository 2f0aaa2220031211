// Command pixbatch converts batches of images through the conversion
// service.
//
// The convert command loads the given files, keeps the ones whose content
// sniffs as an image, feeds them to a batch controller and runs it, retrying
// failed items on request. Finished results are written into the output
// directory under their download names while a lock on that directory keeps
// concurrent invocations from interleaving. The remaining commands list the
// supported formats, probe image dimensions, check readiness of the output
// directory and service, and manage the configuration file.
package main
