package artifact

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kthimi/invoicer/internal/domain/invoice"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/crypto/scrypt"
)

// Key-derivation and cipher parameters. The scrypt cost keeps derivation
// memory-hard; the 32-byte key selects AES-256.
const (
	saltSize   = 16
	keySize    = 32
	scryptN    = 1 << 14
	scryptR    = 8
	scryptP    = 1
	qrImageDim = 512
)

// Payload is the minimized field subset embedded in the scannable artifact.
type Payload struct {
	InvoiceNumber string `json:"inv"`
	Date          string `json:"dt"`
	Subtotal      string `json:"nt"`
	TotalTax      string `json:"tax"`
	GrandTotal    string `json:"tot"`
	UnitCode      string `json:"n"`
}

// PayloadFromSnapshot extracts the verification payload of a snapshot.
func PayloadFromSnapshot(s *invoice.Snapshot) Payload {
	return Payload{
		InvoiceNumber: s.InvoiceNumberString(),
		Date:          s.IssueDateString(),
		Subtotal:      s.Totals.Subtotal.StringFixed(invoice.MoneyPrecision),
		TotalTax:      s.Totals.TotalTax.StringFixed(invoice.MoneyPrecision),
		GrandTotal:    s.Totals.GrandTotal.StringFixed(invoice.MoneyPrecision),
		UnitCode:      s.UnitCode,
	}
}

// Artifact is the encrypted verification payload and its rendered image.
type Artifact struct {
	Encoded   string // base64url(salt || nonce || ciphertext)
	ImagePath string
}

// Encryptor produces encrypted QR artifacts for invoice snapshots.
type Encryptor struct {
	password string
	qrDir    string
	logger   *zap.Logger
}

// NewEncryptor creates a new Encryptor writing images under qrDir.
func NewEncryptor(password, qrDir string, logger *zap.Logger) *Encryptor {
	return &Encryptor{
		password: password,
		qrDir:    qrDir,
		logger:   logger.Named("artifact"),
	}
}

// Encrypt serializes, compresses and encrypts the payload, then renders it
// as a QR image at a deterministic per-invoice path. The derived key never
// leaves this function.
func (e *Encryptor) Encrypt(snap *invoice.Snapshot) (*Artifact, error) {
	payload := PayloadFromSnapshot(snap)

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serialize artifact payload: %w", err)
	}

	compressed, err := compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress artifact payload: %w", err)
	}

	encoded, err := Seal(compressed, e.password)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.qrDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.png",
		SanitizeComponent(snap.UnitCode),
		SanitizeComponent(snap.InvoiceNumberString()),
		SanitizeComponent(snap.IssueDateString()),
	)
	path := filepath.Join(e.qrDir, name)

	if err := qrcode.WriteFile(encoded, qrcode.Medium, qrImageDim, path); err != nil {
		return nil, fmt.Errorf("write artifact image: %w", err)
	}

	e.logger.Info("artifact image written",
		zap.Int64("job_id", snap.JobID),
		zap.String("path", path),
	)

	return &Artifact{Encoded: encoded, ImagePath: path}, nil
}

// Seal encrypts compressed bytes under a scrypt-derived AES-256-GCM key and
// returns the url-safe text payload salt || nonce || ciphertext.
func Seal(plaintext []byte, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := deriveCipher(password, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	combined := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	combined = append(combined, salt...)
	combined = append(combined, nonce...)
	combined = append(combined, sealed...)

	return base64.URLEncoding.EncodeToString(combined), nil
}

// Open reverses Seal: it re-derives the key from the embedded salt and
// authenticates the ciphertext. A wrong password fails authentication.
func Open(encoded, password string) ([]byte, error) {
	combined, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode artifact payload: %w", err)
	}
	if len(combined) < saltSize {
		return nil, fmt.Errorf("artifact payload too short")
	}

	salt := combined[:saltSize]
	gcm, err := deriveCipher(password, salt)
	if err != nil {
		return nil, err
	}

	rest := combined[saltSize:]
	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("artifact payload too short")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("authenticate artifact payload: %w", err)
	}
	return plaintext, nil
}

// Decrypt opens and decompresses an encoded artifact back to its raw
// serialized payload. Verification tooling uses this out-of-band.
func Decrypt(encoded, password string) ([]byte, error) {
	compressed, err := Open(encoded, password)
	if err != nil {
		return nil, err
	}
	return decompress(compressed)
}

func deriveCipher(password string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return gcm, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open compressed payload: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return out, nil
}
