// Package followup builds the WhatsApp message helpdesk sends a customer
// about the state of their inquiry.
package followup

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/shopspring/decimal"
)

type FollowUp struct {
	Number  string `json:"number"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

var statusPhrases = map[model.Status]string{
	model.StatusPending:        "Masih dalam tahap pengajuan",
	model.StatusProgress:       "Sedang diproses",
	model.StatusWaitForPayment: "Menunggu pembayaran",
	model.StatusOnGoingQA:      "Sedang dalam Quality Assurance",
	model.StatusOnProgressQA:   "Sedang dalam Quality Assurance",
	model.StatusReadyForUpdate: "Siap untuk diupdate",
	model.StatusPaidOff:        "Sudah dibayar",
	model.StatusSelesai:        "Sudah selesai",
	model.StatusBatal:          "Dibatalkan",
}

func Build(inq model.Inquiry) FollowUp {
	number := NormalizeNumber(inq.NomorWhatsappCustomer)
	msg := Message(inq)
	return FollowUp{
		Number:  number,
		Message: msg,
		URL:     "https://wa.me/" + number + "?text=" + url.QueryEscape(msg),
	}
}

func Message(inq model.Inquiry) string {
	var fee string
	switch inq.Type {
	case model.TypeBerbayar:
		amount := "-"
		if inq.Fee.Valid {
			amount = FormatIDR(inq.Fee.Decimal)
		}
		fee = fmt.Sprintf("Permintaan Anda dikenakan biaya sebesar %s.", amount)
	case model.TypeGratis:
		fee = "Permintaan Anda tidak dikenakan biaya (gratis)."
	default:
		fee = "Status biaya permintaan Anda belum ditentukan."
	}

	status := "Status permintaan Anda belum ditentukan."
	if inq.Status != "" {
		phrase, ok := statusPhrases[inq.Status]
		if !ok {
			phrase = string(inq.Status)
		}
		status = fmt.Sprintf("Status permintaan Anda saat ini: %s.", phrase)
	}
	return fmt.Sprintf("Halo %s,\n\n%s\n%s\n\nTerima kasih telah menggunakan layanan kami.", inq.NamaToko, fee, status)
}

// FormatIDR renders whole rupiah with dot thousand separators: Rp200.000.
func FormatIDR(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp" + b.String()
}

// NormalizeNumber keeps digits only and rewrites the local 0 prefix to the
// Indonesian country code, which wa.me requires.
func NormalizeNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n := b.String()
	if strings.HasPrefix(n, "0") {
		n = "62" + n[1:]
	}
	return n
}
