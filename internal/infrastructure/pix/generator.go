package pix

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/bwmarrin/snowflake"
)

// DefaultQRSize is the PNG side in pixels
const DefaultQRSize = 320

// QRCode is a generated charge
type QRCode struct {
	TxID    string
	Payload string
	PNG     []byte
}

// Generator issues txids and renders charges
type Generator struct {
	node   *snowflake.Node
	qrSize int
}

// NewGenerator creates a generator. nodeID must be unique per running
// instance (0-1023) so txids never collide.
func NewGenerator(nodeID int64, qrSize int) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create txid node: %w", err)
	}
	if qrSize <= 0 {
		qrSize = DefaultQRSize
	}
	return &Generator{node: node, qrSize: qrSize}, nil
}

// NextTxID returns a new alphanumeric transaction id, "RP" plus a base36 snowflake
func (g *Generator) NextTxID() string {
	return "RP" + g.node.Generate().Base36()
}

// Generate builds the payload for c and its QR image. An empty c.TxID gets a fresh one.
func (g *Generator) Generate(c Charge) (*QRCode, error) {
	if c.TxID == "" {
		c.TxID = g.NextTxID()
	}
	payload, err := BuildPayload(c)
	if err != nil {
		return nil, err
	}
	img, err := RenderPNG(payload, g.qrSize)
	if err != nil {
		return nil, err
	}
	return &QRCode{TxID: c.TxID, Payload: payload, PNG: img}, nil
}

// RenderPNG encodes payload as a QR code with medium error correction
func RenderPNG(payload string, size int) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to scale QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to write QR png: %w", err)
	}
	return buf.Bytes(), nil
}
