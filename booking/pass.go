package booking

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"
	"kilnhouse/settings"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

func passSecret() []byte {
	if s := os.Getenv("PASS_SIGNING_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("kilnhouse_pass_secret")
}

// PassPayload builds the signed QR string on a studio pass:
// bookingID|date|time|guests|signature.
func PassPayload(bookingID, date, slotTime string, guests int) string {
	data := fmt.Sprintf("%s|%s|%s|%d", bookingID, date, slotTime, guests)
	h := hmac.New(sha256.New, passSecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return data + "|" + sig
}

// VerifyPassPayload checks a scanned payload's signature and returns the
// booking id it names.
func VerifyPassPayload(payload string) (string, bool) {
	parts := strings.Split(payload, "|")
	if len(parts) != 5 {
		return "", false
	}
	data := strings.Join(parts[:4], "|")
	h := hmac.New(sha256.New, passSecret())
	h.Write([]byte(data))
	expected := base64.StdEncoding.EncodeToString(h.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[4])) {
		return "", false
	}
	return parts[0], true
}

// BookingPass streams the printable pass for a confirmed booking.
func BookingPass(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var booking models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": bookingID}).Decode(&booking); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if booking.Status != models.BookingConfirmed && booking.Status != models.BookingCompleted {
		utils.RespondWithError(w, http.StatusBadRequest, "Pass is available once the booking is confirmed")
		return
	}

	studio := "Kiln House"
	if biz, err := settings.Load(ctx); err == nil && biz.TradeName != "" {
		studio = biz.TradeName
	}

	qrPNG, err := qrcode.Encode(PassPayload(booking.BookingID, booking.Date, booking.Time, booking.Guests), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, studio+" - Studio Pass")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, booking.EntityTitle)
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s at %s", booking.Date, booking.Time))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Guests: %d", booking.Guests))
	pdf.Ln(8)
	pdf.Cell(0, 8, "Name: "+booking.Contact.Name)
	pdf.Ln(8)
	pdf.Cell(0, 8, "Booking Ref: "+booking.BookingID)
	pdf.Ln(12)

	pdf.SetFont("Arial", "I", 10)
	pdf.Cell(0, 8, "Show this pass at the studio. The QR code is checked at the door.")

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("pass-qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("pass-qr", 150, 30, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=pass-"+booking.BookingID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// VerifyPass checks a scanned QR payload at the studio door.
func VerifyPass(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Payload == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "A payload is required")
		return
	}

	bookingID, ok := VerifyPassPayload(body.Payload)
	if !ok {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"valid": false, "reason": "bad signature"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": bookingID}).Decode(&booking); err != nil {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"valid": false, "reason": "booking not found"})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"valid":  booking.Status == models.BookingConfirmed,
		"status": booking.Status,
		"booking": utils.M{
			"bookingid":   booking.BookingID,
			"entityTitle": booking.EntityTitle,
			"date":        booking.Date,
			"time":        booking.Time,
			"guests":      booking.Guests,
			"name":        booking.Contact.Name,
		},
	})
}
