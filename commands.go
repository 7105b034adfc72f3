package ili9341

// Command set, from the ILI9341 datasheet section 8.
const (
	NOP     = 0x00 // No-op
	SWRESET = 0x01 // Software reset
	RDDID   = 0x04 // Read display identification information
	RDDST   = 0x09 // Read display status

	SLPIN  = 0x10 // Enter sleep mode
	SLPOUT = 0x11 // Sleep out
	PTLON  = 0x12 // Partial mode on
	NORON  = 0x13 // Normal display mode on

	INVOFF   = 0x20 // Display inversion off
	INVON    = 0x21 // Display inversion on
	GAMMASET = 0x26 // Gamma set
	DISPOFF  = 0x28 // Display off
	DISPON   = 0x29 // Display on

	CASET = 0x2A // Column address set
	PASET = 0x2B // Page (row) address set
	RAMWR = 0x2C // Memory write
	RAMRD = 0x2E // Memory read

	VSCRDEF  = 0x33 // Vertical scrolling definition
	MADCTL   = 0x36 // Memory access control
	VSCRSADD = 0x37 // Vertical scrolling start address
	PIXFMT   = 0x3A // Pixel format set

	FRMCTR1 = 0xB1 // Frame rate control (normal mode)
	DFUNCTR = 0xB6 // Display function control

	PWCTR1 = 0xC0 // Power control 1
	PWCTR2 = 0xC1 // Power control 2
	VMCTR1 = 0xC5 // VCOM control 1
	VMCTR2 = 0xC7 // VCOM control 2
	PWCTRA = 0xCB // Power control A
	PWCTRB = 0xCF // Power control B

	GMCTRP1 = 0xE0 // Positive gamma correction
	GMCTRN1 = 0xE1 // Negative gamma correction
	DTCTRA  = 0xE8 // Driver timing control A
	DTCTRB  = 0xEA // Driver timing control B
	PWONSEQ = 0xED // Power on sequence control
	EN3GAM  = 0xF2 // Enable 3 gamma control
	PUMPRAT = 0xF7 // Pump ratio control
)

// MADCTL bits.
const (
	MADCTL_MY  = 1 << 7 // Row address order, bottom to top
	MADCTL_MX  = 1 << 6 // Column address order, right to left
	MADCTL_MV  = 1 << 5 // Row/column exchange
	MADCTL_ML  = 1 << 4 // Vertical refresh order
	MADCTL_BGR = 1 << 3 // Blue-green-red pixel order
	MADCTL_MH  = 1 << 2 // Horizontal refresh order
)

// initCmds is the power-on sequence. Each entry is a command, an argument
// count and the arguments; a count with the high bit set asks for a 150ms
// pause after the command. A zero command ends the list.
var initCmds = []byte{
	PWCTRB, 3, 0x00, 0xC1, 0x30,
	PWONSEQ, 4, 0x64, 0x03, 0x12, 0x81,
	DTCTRA, 3, 0x85, 0x00, 0x78,
	PWCTRA, 5, 0x39, 0x2C, 0x00, 0x34, 0x02,
	PUMPRAT, 1, 0x20,
	DTCTRB, 2, 0x00, 0x00,
	PWCTR1, 1, 0x23, // VRH[5:0]
	PWCTR2, 1, 0x10, // SAP[2:0], BT[3:0]
	VMCTR1, 2, 0x3E, 0x28,
	VMCTR2, 1, 0x86,
	VSCRSADD, 1, 0x00,
	PIXFMT, 1, 0x55, // 16 bits per pixel
	FRMCTR1, 2, 0x00, 0x18,
	DFUNCTR, 3, 0x08, 0x82, 0x27,
	EN3GAM, 1, 0x00,
	GAMMASET, 1, 0x01,
	GMCTRP1, 15, 0x0F, 0x31, 0x2B, 0x0C, 0x0E, 0x08, 0x4E, 0xF1, 0x37, 0x07, 0x10, 0x03, 0x0E, 0x09, 0x00,
	GMCTRN1, 15, 0x00, 0x0E, 0x14, 0x03, 0x11, 0x07, 0x31, 0xC1, 0x48, 0x08, 0x0F, 0x0C, 0x31, 0x36, 0x0F,
	SLPOUT, 0x80,
	DISPON, 0x80,
	0x00,
}
