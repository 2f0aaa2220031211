// Package convertapi is the HTTP client for the image conversion service.
//
// A Client posts one source per request as a multipart form: the source
// bytes under the "file" part, the target format, then every transform
// option field in the order the service expects them. Non-2xx responses are
// decoded from the service's {"error", "code"} JSON body and classified with
// the services error markers so callers can record a readable failure
// message against the item.
package convertapi
