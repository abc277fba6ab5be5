package ui

// iconBytes is the 16x16 tray icon PNG.
var iconBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x28, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x90, 0x93, 0x93, 0xfb,
	0x0f, 0xc2, 0x31, 0x36, 0x77, 0x48, 0xc2, 0x30, 0x7d, 0x0c, 0x14, 0x1b,
	0x40, 0xaa, 0x46, 0x74, 0x4c, 0xb9, 0x01, 0xa3, 0x61, 0x30, 0x1a, 0x06,
	0xa3, 0x61, 0x00, 0xc6, 0x00, 0x0e, 0x88, 0x4f, 0xdf, 0xae, 0x8e, 0x38,
	0x17, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60,
	0x82,
}
