package ubl

import "bytes"

// Minify compacta el XML antes de codificarlo a base64: elimina saltos de
// línea y tabulaciones, colapsa espacios repetidos y quita el espacio entre
// etiquetas contiguas.
func Minify(xmlDoc []byte) []byte {
	out := bytes.ReplaceAll(xmlDoc, []byte("\r\n"), nil)
	out = bytes.ReplaceAll(out, []byte("\n"), nil)
	out = bytes.ReplaceAll(out, []byte("\t"), nil)
	for bytes.Contains(out, []byte("  ")) {
		out = bytes.ReplaceAll(out, []byte("  "), []byte(" "))
	}
	out = bytes.ReplaceAll(out, []byte("> <"), []byte("><"))
	return bytes.TrimSpace(out)
}
