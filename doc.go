// Package ili9341 controls an ILI9341 TFT display via SPI.
//
// The ILI9341 is a 240×320 RGB565 controller with an addressing window: a
// column range and a row range select a rectangle of display RAM, and the
// following memory write or memory read streams pixels into or out of it in
// raster order. This driver exposes that window directly, and implements a
// display.Drawer style Draw on top of it.
//
// # Display Characteristics
//
// - 16-bit color, 5 bits red, 6 bits green, 5 bits blue
// - 240×320 native resolution, four orientations
// - Display RAM can be read back, one byte per channel
// - Vertical scrolling with fixed top and bottom areas
// - Display inversion
//
// # Hardware Connection
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCK         → SPI Clock (SCLK)
//	SDI/MOSI    → SPI Data (MOSI)
//	SDO/MISO    → SPI Data (MISO), needed to read display RAM
//	DC          → GPIO (any available pin)
//	CS          → SPI Chip Select
//	RESET       → Optional: GPIO for hardware reset
//
// # Basic Usage
//
//	host.Init()
//	b, _ := spireg.Open("")
//	dev, _ := ili9341.NewSPI(b, gpioreg.ByName("GPIO25"), nil)
//	defer dev.Halt()
//
//	dev.Fill(dev.Bounds(), image565.Navy)
//	dev.Draw(dev.Bounds(), img, image.Point{})
//
// # Windowed Transfers
//
// OpenWindow programs the column range, then the row range, then starts a
// memory write or read. WritePixels and ReadPixels then move exactly the
// pixels of that rectangle, in as many calls as convenient:
//
//	dev.OpenWindow(image.Rect(16, 0, 32, 16), ili9341.Write)
//	dev.WritePixels(block)
//
// Pixels go out most significant byte first. Reads return one byte per
// channel, which are packed back into RGB565; the leading dummy byte of a
// memory read is skipped.
//
// The stream sub package walks whole regions tile by tile on top of this.
//
// # Background Transfers
//
// With Opts.Background set, pixel data is sent from a goroutine while the
// next chunk is being converted. Any later bus access waits for the
// transfer in flight; Wait does so explicitly.
//
// # Orientation
//
//	Rotation          Bounds
//	Portrait          240×320
//	Landscape         320×240
//	PortraitFlipped   240×320
//	LandscapeFlipped  320×240 (default)
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/ILI9341.pdf
package ili9341
