package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// EnvelopeNode marks the system message that carries an encrypted conversation.
const EnvelopeNode = "__encrypted__"

var (
	// ErrInvalidKey is returned for keys that are not 32 bytes long.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")

	// ErrMissingEnvelope is returned when a loaded checkpoint was not sealed.
	ErrMissingEnvelope = errors.New("checkpoint is missing encrypted data envelope")
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	ActiveKey []byte

	// FallbackKeys are older keys tried when the active one fails, so keys can rotate
	// without rewriting stored sessions.
	FallbackKeys [][]byte
}

// Validate checks key sizes.
func (c EncryptionConfig) Validate() error {
	if len(c.ActiveKey) != 32 {
		return ErrInvalidKey
	}
	for _, k := range c.FallbackKeys {
		if len(k) != 32 {
			return ErrInvalidKey
		}
	}
	return nil
}

type encryptionStore struct {
	passthrough
	config EncryptionConfig
}

// NewEncryption creates a middleware that seals the conversation with AES-GCM.
// Position fields (LastNode, Step, Turn, UpdatedAt) stay readable for inspection;
// the messages are replaced by a single envelope message.
func NewEncryption(config EncryptionConfig) (Middleware, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &encryptionStore{passthrough: passthrough{next: next}, config: config}
	}, nil
}

func (m *encryptionStore) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if cp == nil {
		return domain.ErrEmptySessionID
	}
	plainText, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt state: %w", err)
	}

	envelope := domain.NewConversationState(domain.Message{
		Role:    domain.RoleSystem,
		Node:    EnvelopeNode,
		Content: base64.StdEncoding.EncodeToString(ciphertext),
	})
	return m.next.Save(ctx, withState(cp, envelope))
}

func (m *encryptionStore) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	sealed, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msgs := sealed.State.Messages
	if len(msgs) != 1 || msgs[0].Node != EnvelopeNode {
		return nil, ErrMissingEnvelope
	}

	ciphertext, err := base64.StdEncoding.DecodeString(msgs[0].Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt state: %w", err)
	}

	var state domain.ConversationState
	if err := json.Unmarshal(plainText, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted state: %w", err)
	}
	return withState(sealed, state), nil
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
