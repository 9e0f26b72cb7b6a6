// Command x509der writes a self-signed Ed25519 certificate assembled by the
// x509der package.
package main

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	goflag "flag"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	x509der "github.com/thebagchi/x509der-go"
)

// ALG_ED25519 is the AlgorithmIdentifier content for id-Ed25519 (1.3.101.112)
var ALG_ED25519 = []byte{0x06, 0x03, 0x2B, 0x65, 0x70}

// env is the outside world of the command, broken out for tests.
type env struct {
	stdout io.Writer
	clock  func() time.Time
	random io.Reader
}

type generateCommand struct {
	env     env
	config  string
	profile Profile
	cmd     *cobra.Command
}

func newGenerateCmd(e env) *generateCommand {
	c := &generateCommand{env: e}
	c.cmd = &cobra.Command{
		Use:          "x509der",
		Short:        "Write a self-signed Ed25519 certificate in DER or PEM",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Flags())
		},
	}

	flags := c.cmd.Flags()
	flags.StringVar(&c.config, "config", "", "YAML profile, flags override its fields")
	flags.StringVar(&c.profile.NotBefore, "not-before", "", "start of validity, RFC 3339 or seconds since the epoch (default now)")
	flags.StringVar(&c.profile.NotAfter, "not-after", "", "end of validity, RFC 3339 or seconds since the epoch")
	flags.StringVar(&c.profile.Validity, "validity", "", "validity duration when --not-after is not given (default 8760h)")
	flags.BoolVar(&c.profile.MaxNotAfter, "max-not-after", false, "end validity at 9999-12-31T23:59:59Z")
	flags.StringVar(&c.profile.Key, "key", "", "PEM PKCS #8 Ed25519 private key (default generate one)")
	flags.StringVar(&c.profile.KeyOutput, "key-out", "", "write the private key as PEM to this file")
	flags.StringVarP(&c.profile.Output, "out", "o", "-", "certificate output file, - for standard output")
	flags.StringVar(&c.profile.Format, "format", FORMAT_DER, "certificate format, der or pem")

	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	c.cmd.PersistentFlags().AddGoFlag(klogFlags.Lookup("v"))
	return c
}

// resolve merges the profile file with the flags that were set explicitly.
func (c *generateCommand) resolve(flags *pflag.FlagSet) (*Profile, error) {
	if c.config == "" {
		return &c.profile, nil
	}
	profile, err := LoadProfile(c.config)
	if nil != err {
		return nil, err
	}
	override := map[string]func(){
		"not-before":    func() { profile.NotBefore = c.profile.NotBefore },
		"not-after":     func() { profile.NotAfter = c.profile.NotAfter },
		"validity":      func() { profile.Validity = c.profile.Validity },
		"max-not-after": func() { profile.MaxNotAfter = c.profile.MaxNotAfter },
		"key":           func() { profile.Key = c.profile.Key },
		"key-out":       func() { profile.KeyOutput = c.profile.KeyOutput },
		"out":           func() { profile.Output = c.profile.Output },
		"format":        func() { profile.Format = c.profile.Format },
	}
	for name, apply := range override {
		if flags.Changed(name) {
			apply()
		}
	}
	if profile.Output == "" {
		profile.Output = "-"
	}
	if profile.Format == "" {
		profile.Format = FORMAT_DER
	}
	return profile, nil
}

func (c *generateCommand) run(flags *pflag.FlagSet) error {
	profile, err := c.resolve(flags)
	if nil != err {
		return err
	}
	if err := profile.Validate(); nil != err {
		return err
	}
	notBefore, notAfter, err := profile.Window(c.env.clock())
	if nil != err {
		return err
	}

	key, err := c.loadKey(profile.Key)
	if nil != err {
		return err
	}

	cert := x509der.Certificate{
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		Algorithm:          ALG_ED25519,
		PublicKey:          key.Public().(ed25519.PublicKey),
		SignatureAlgorithm: ALG_ED25519,
	}
	tbs, err := cert.EncodeTBS()
	if nil != err {
		return errors.Wrap(err, "encode certificate")
	}
	cert.Signature = ed25519.Sign(key, tbs)
	encoded, err := cert.Encode()
	if nil != err {
		return errors.Wrap(err, "encode certificate")
	}
	klog.V(2).InfoS("Encoded certificate", "tbsBytes", len(tbs), "certificateBytes", len(encoded))

	if profile.Format == FORMAT_PEM {
		encoded = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: encoded})
	}
	if err := c.write(profile.Output, encoded, 0o644); nil != err {
		return err
	}
	klog.InfoS("Wrote certificate", "output", profile.Output, "format", profile.Format,
		"notBefore", notBefore, "notAfter", notAfter)

	if profile.KeyOutput != "" {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if nil != err {
			return errors.Wrap(err, "marshal private key")
		}
		if err := c.write(profile.KeyOutput, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600); nil != err {
			return err
		}
		klog.InfoS("Wrote private key", "output", profile.KeyOutput)
	}
	return nil
}

func (c *generateCommand) loadKey(path string) (ed25519.PrivateKey, error) {
	if path == "" {
		_, key, err := ed25519.GenerateKey(c.env.random)
		if nil != err {
			return nil, errors.Wrap(err, "generate key")
		}
		klog.V(1).InfoS("Generated Ed25519 key")
		return key, nil
	}
	data, err := os.ReadFile(path)
	if nil != err {
		return nil, errors.Wrap(err, "read key")
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PRIVATE KEY" {
		return nil, errors.Errorf("%s does not contain a PEM PRIVATE KEY block", path)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if nil != err {
		return nil, errors.Wrapf(err, "parse key %s", path)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.Errorf("%s holds a %T, want an Ed25519 key", path, parsed)
	}
	klog.V(1).InfoS("Loaded Ed25519 key", "path", path)
	return key, nil
}

func (c *generateCommand) write(path string, data []byte, mode os.FileMode) error {
	if path == "-" {
		_, err := io.Copy(c.env.stdout, bytes.NewReader(data))
		return errors.Wrap(err, "write standard output")
	}
	return errors.Wrapf(os.WriteFile(path, data, mode), "write %s", path)
}

func main() {
	c := newGenerateCmd(env{
		stdout: os.Stdout,
		clock:  time.Now,
		random: rand.Reader,
	})
	err := c.cmd.Execute()
	if nil != err {
		klog.ErrorS(err, "Failed to generate certificate")
	}
	klog.Flush()
	if nil != err {
		os.Exit(1)
	}
}
