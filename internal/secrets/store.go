package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// lightweight per-user secret store (file, 0600) with AES-GCM obfuscation.
// Not a replacement for OS keychains but keeps verifier secrets out of the config file.

const fileName = "secrets.json"

var (
	ErrNotFound       = errors.New("secrets: account not found")
	ErrAccountMissing = errors.New("secrets: account required")
)

// Kind says how a verifier should interpret a secret.
type Kind string

const (
	KindTOTP   Kind = "totp"   // base32 TOTP seed
	KindBcrypt Kind = "bcrypt" // bcrypt hash of a static PIN
)

// Secret is the plaintext form handed to verifiers.
type Secret struct {
	Kind  Kind
	Value string
}

type entry struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"` // base64(nonce|ciphertext)
}

type secretFile struct {
	Accounts map[string]entry `json:"accounts"`
}

// Store persists secrets under dir.
type Store struct {
	dir string
}

// NewStore uses dir, or <user config dir>/pinlogin when dir is empty.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "pinlogin")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Put(account string, sec Secret) error {
	if account = norm(account); account == "" {
		return ErrAccountMissing
	}
	path, err := s.filePath()
	if err != nil {
		return err
	}
	sf, err := load(path)
	if err != nil {
		return err
	}
	if sf.Accounts == nil {
		sf.Accounts = map[string]entry{}
	}
	ct, err := encrypt([]byte(sec.Value))
	if err != nil {
		return err
	}
	sf.Accounts[account] = entry{Kind: sec.Kind, Value: base64.StdEncoding.EncodeToString(ct)}
	return save(path, sf)
}

func (s *Store) Get(account string) (Secret, error) {
	if account = norm(account); account == "" {
		return Secret{}, ErrAccountMissing
	}
	path, err := s.filePath()
	if err != nil {
		return Secret{}, err
	}
	sf, err := load(path)
	if err != nil {
		return Secret{}, err
	}
	e, ok := sf.Accounts[account]
	if !ok {
		return Secret{}, fmt.Errorf("%w: %s", ErrNotFound, account)
	}
	raw, err := base64.StdEncoding.DecodeString(e.Value)
	if err != nil {
		return Secret{}, err
	}
	pt, err := decrypt(raw)
	if err != nil {
		return Secret{}, err
	}
	return Secret{Kind: e.Kind, Value: string(pt)}, nil
}

func (s *Store) Delete(account string) error {
	if account = norm(account); account == "" {
		return ErrAccountMissing
	}
	path, err := s.filePath()
	if err != nil {
		return err
	}
	sf, err := load(path)
	if err != nil {
		return err
	}
	if _, ok := sf.Accounts[account]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, account)
	}
	delete(sf.Accounts, account)
	return save(path, sf)
}

func (s *Store) filePath() (string, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil { // restrict directory
		return "", err
	}
	return filepath.Join(s.dir, fileName), nil
}

func load(path string) (secretFile, error) {
	var sf secretFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return secretFile{}, nil
		}
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("decode %s: %w", path, err)
	}
	return sf, nil
}

func save(path string, sf secretFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func masterKey() []byte {
	base := fmt.Sprintf("pinlogin-%s-%s", runtime.GOOS, os.Getenv("USER"))
	hash := sha256.Sum256([]byte(base))
	return hash[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plain []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	body := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
