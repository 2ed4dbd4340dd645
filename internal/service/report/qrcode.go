package report

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

const qrSize = 512

// LocationQRCode encodes the location id that clients send back as the
// location_id hint.
func LocationQRCode(locationID int) ([]byte, error) {
	png, err := qrcode.Encode(strconv.Itoa(locationID), qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qr code")
	}
	return png, nil
}
