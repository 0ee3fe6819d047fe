// Package credentials loads the signing key for the sending account from an
// out-of-band secret: environment, NEAR CLI credential file, encrypted
// keystore, or an interactive prompt.
package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/term"

	"github.com/quantumauth-io/near-transfer/internal/constants"
	"github.com/quantumauth-io/near-transfer/internal/near"
	"github.com/quantumauth-io/near-transfer/internal/securefile"
)

var ErrMissingCredential = errors.New("private key is undefined")

// Credential is a key bound to the account it signs for.
type Credential struct {
	AccountID string
	KeyPair   near.KeyPair
}

type Source interface {
	Load(ctx context.Context) (Credential, error)
}

func build(accountID, encodedKey string) (Credential, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return Credential{}, errors.New("credential account id is required")
	}
	if strings.TrimSpace(encodedKey) == "" {
		return Credential{}, errors.Wrapf(ErrMissingCredential, "for %s", accountID)
	}
	kp, err := near.ParseKeyPair(encodedKey)
	if err != nil {
		return Credential{}, errors.Wrapf(err, "private key for %s", accountID)
	}
	return Credential{AccountID: accountID, KeyPair: kp}, nil
}

// EnvSource reads the private key from an environment variable.
type EnvSource struct {
	AccountID string
	Var       string
	Lookup    func(string) (string, bool)
}

func (s EnvSource) Load(_ context.Context) (Credential, error) {
	name := s.Var
	if name == "" {
		name = constants.DefaultPrivateKeyEnv
	}
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	v, ok := lookup(name)
	if !ok || strings.TrimSpace(v) == "" {
		return Credential{}, errors.Wrapf(ErrMissingCredential, "please set %s", name)
	}
	return build(s.AccountID, v)
}

// cliCredential is the layout near-cli writes to ~/.near-credentials/<network>/<account>.json.
type cliCredential struct {
	AccountID  string `json:"account_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// FileSource reads a NEAR CLI credentials file.
type FileSource struct {
	AccountID string
	Path      string
}

func (s FileSource) Load(_ context.Context) (Credential, error) {
	if strings.TrimSpace(s.Path) == "" {
		return Credential{}, errors.Wrap(ErrMissingCredential, "no credentials file configured")
	}
	if _, err := os.Stat(s.Path); errors.Is(err, os.ErrNotExist) {
		return Credential{}, errors.Wrapf(ErrMissingCredential, "%s does not exist", s.Path)
	}

	c, err := securefile.ReadJSON[cliCredential](s.Path)
	if err != nil {
		return Credential{}, err
	}

	account := s.AccountID
	if account == "" {
		account = c.AccountID
	}
	if c.AccountID != "" && c.AccountID != account {
		return Credential{}, errors.Newf("credentials file is for %s, not %s", c.AccountID, account)
	}

	cred, err := build(account, c.PrivateKey)
	if err != nil {
		return Credential{}, err
	}
	if c.PublicKey != "" && c.PublicKey != cred.KeyPair.PublicKey().String() {
		return Credential{}, errors.Newf("credentials file public key %s does not match its private key", c.PublicKey)
	}
	return cred, nil
}

// SecretReader reads a secret without echoing it.
type SecretReader func(label string) ([]byte, error)

// KeystoreSource decrypts a keystore written by ImportKeystore.
type KeystoreSource struct {
	AccountID string
	Path      string
	Password  SecretReader
}

type keystoreEntry struct {
	AccountID  string `json:"account_id"`
	PrivateKey string `json:"private_key"`
}

func keystoreOptions() securefile.Options {
	return securefile.Options{
		FilePerm:      constants.FilePerm,
		DirectoryPerm: constants.DirectoryPerm,
		AAD:           []byte(constants.KeystoreAAD),
	}
}

func (s KeystoreSource) Load(_ context.Context) (Credential, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return Credential{}, errors.Wrapf(ErrMissingCredential, "keystore %s: %v", s.Path, err)
	}
	if s.Password == nil {
		return Credential{}, errors.New("keystore needs a password reader")
	}

	pw, err := s.Password(fmt.Sprintf("Keystore password for %s: ", s.Path))
	if err != nil {
		return Credential{}, err
	}
	defer zero(pw)

	e, err := securefile.ReadEncryptedJSON[keystoreEntry](s.Path, pw, keystoreOptions())
	if err != nil {
		return Credential{}, errors.Wrap(err, "open keystore")
	}

	account := s.AccountID
	if account == "" {
		account = e.AccountID
	}
	if e.AccountID != account {
		return Credential{}, errors.Newf("keystore holds %s, not %s", e.AccountID, account)
	}
	return build(account, e.PrivateKey)
}

// ImportKeystore validates the key and writes it encrypted under password.
func ImportKeystore(path, accountID, privateKey string, password []byte) error {
	if _, err := build(accountID, privateKey); err != nil {
		return err
	}
	return securefile.WriteEncryptedJSON(path, keystoreEntry{AccountID: accountID, PrivateKey: privateKey}, password, keystoreOptions())
}

// PromptSource asks for the private key on the terminal.
type PromptSource struct {
	AccountID string
	Read      SecretReader
}

func (s PromptSource) Load(_ context.Context) (Credential, error) {
	read := s.Read
	if read == nil {
		read = ReadSecret
	}
	raw, err := read(fmt.Sprintf("Private key for %s: ", s.AccountID))
	if err != nil {
		return Credential{}, errors.Wrap(ErrMissingCredential, err.Error())
	}
	defer zero(raw)
	return build(s.AccountID, string(raw))
}

// ReadSecret prompts on stderr and reads stdin without echo.
func ReadSecret(label string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}

	_, _ = fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		zero(b)
		return nil, fmt.Errorf("secret input failed: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		zero(b)
		return nil, errors.New("empty input")
	}
	return b, nil
}

// MinPasswordLen is the shortest keystore password ReadNewPassword accepts.
const MinPasswordLen = 8

// ReadNewPassword asks for a keystore password twice and checks it.
func ReadNewPassword(read SecretReader) ([]byte, error) {
	if read == nil {
		read = ReadSecret
	}
	pw, err := read("New keystore password: ")
	if err != nil {
		return nil, err
	}
	if len(pw) < MinPasswordLen {
		zero(pw)
		return nil, fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}
	for _, b := range pw {
		if b < 0x21 || b > 0x7e {
			zero(pw)
			return nil, errors.New("password contains invalid characters (use letters, numbers, and special characters only)")
		}
	}

	confirm, err := read("Repeat password: ")
	if err != nil {
		zero(pw)
		return nil, err
	}
	defer zero(confirm)
	if string(confirm) != string(pw) {
		zero(pw)
		return nil, errors.New("passwords do not match")
	}
	return pw, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
