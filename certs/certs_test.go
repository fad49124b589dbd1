package certs_test

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/edge-sdk/certs"
)

func genSelfSigned() (certPEM, keyPEM []byte) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).To(BeNil())

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "edge-sdk-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	Expect(err).To(BeNil())

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyDER, err := x509.MarshalECPrivateKey(priv)
	Expect(err).To(BeNil())
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return
}

var _ = Describe("Identity", func() {
	var certPEM, keyPEM []byte

	BeforeEach(func() {
		certPEM, keyPEM = genSelfSigned()
	})

	It("builds a tls.Config from inline PEM material", func() {
		id := certs.Identity{
			CA:   "pem:" + string(certPEM),
			Cert: "pem:" + string(certPEM),
			Key:  "pem:" + string(keyPEM),
		}
		cfg, err := id.TLSConfig()
		Expect(err).To(BeNil())
		Expect(cfg.Certificates).To(HaveLen(1))
		Expect(cfg.RootCAs).ToNot(BeNil())
	})

	It("builds a tls.Config from file:// references", func() {
		dir := GinkgoT().TempDir()
		certPath := filepath.Join(dir, "cert.pem")
		keyPath := filepath.Join(dir, "key.pem")
		Expect(os.WriteFile(certPath, certPEM, 0o600)).To(Succeed())
		Expect(os.WriteFile(keyPath, keyPEM, 0o600)).To(Succeed())

		id := certs.Identity{
			CA:   "file://" + certPath,
			Cert: "file://" + certPath,
			Key:  "file://" + keyPath,
		}
		cfg, err := id.TLSConfig()
		Expect(err).To(BeNil())
		Expect(cfg.Certificates).To(HaveLen(1))
	})

	It("resolves a bare path as a file before falling back to inline PEM", func() {
		dir := GinkgoT().TempDir()
		certPath := filepath.Join(dir, "cert.pem")
		keyPath := filepath.Join(dir, "key.pem")
		Expect(os.WriteFile(certPath, certPEM, 0o600)).To(Succeed())
		Expect(os.WriteFile(keyPath, keyPEM, 0o600)).To(Succeed())

		id := certs.Identity{CA: certPath, Cert: certPath, Key: keyPath}
		cfg, err := id.TLSConfig()
		Expect(err).To(BeNil())
		Expect(cfg.Certificates).To(HaveLen(1))
	})

	It("rejects a pkcs11:// key reference", func() {
		id := certs.Identity{
			CA:   "pem:" + string(certPEM),
			Cert: "pem:" + string(certPEM),
			Key:  "pkcs11://slot0?pin=1234&id=01",
		}
		_, err := id.TLSConfig()
		Expect(err).ToNot(BeNil())
		Expect(err.Kind().String()).To(Equal("DISABLED"))
	})

	It("rejects a malformed CA bundle", func() {
		id := certs.Identity{
			CA:   "pem:not a certificate",
			Cert: "pem:" + string(certPEM),
			Key:  "pem:" + string(keyPEM),
		}
		_, err := id.TLSConfig()
		Expect(err).ToNot(BeNil())
	})

	It("rejects a mismatched cert/key pair", func() {
		_, otherKey := genSelfSigned()
		id := certs.Identity{
			CA:   "pem:" + string(certPEM),
			Cert: "pem:" + string(certPEM),
			Key:  "pem:" + string(otherKey),
		}
		_, err := id.TLSConfig()
		Expect(err).ToNot(BeNil())
	})

	It("treats whitespace-padded inline PEM the same as trimmed PEM", func() {
		padded := append([]byte("\n\n"), certPEM...)
		padded = append(padded, []byte("\n\n")...)
		Expect(bytes.TrimSpace(padded)).To(Equal(bytes.TrimSpace(certPEM)))

		id := certs.Identity{
			CA:   "pem:" + string(padded),
			Cert: "pem:" + string(padded),
			Key:  "pem:" + string(keyPEM),
		}
		cfg, err := id.TLSConfig()
		Expect(err).To(BeNil())
		Expect(cfg.Certificates).To(HaveLen(1))
	})
})
