package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/gotd/td/session"
)

var _ session.Storage = (*memorySession)(nil)

// memorySession is a minimal in-memory session.Storage. Credentials are
// loaded into it at connect time and exported from it after onboarding;
// nothing is ever written to disk.
type memorySession struct {
	mu   sync.Mutex
	data []byte
}

func (m *memorySession) LoadSession(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, session.ErrNotFound
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *memorySession) StoreSession(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make([]byte, len(data))
	copy(m.data, data)
	return nil
}

// Bytes returns a copy of the stored session data.
func (m *memorySession) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

// storageFromCredential decodes an opaque account credential into session
// storage. Telethon string sessions are recognized first (the original tool
// minted those); anything else must be base64 of gotd session bytes as
// produced by Onboard.
func storageFromCredential(ctx context.Context, credential string) (session.Storage, error) {
	st := &memorySession{}

	if data, err := session.TelethonSession(credential); err == nil {
		loader := session.Loader{Storage: st}
		if err := loader.Save(ctx, data); err != nil {
			return nil, fmt.Errorf("import telethon session: %w", err)
		}
		return st, nil
	}

	raw, err := base64.StdEncoding.DecodeString(credential)
	if err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	if err := st.StoreSession(ctx, raw); err != nil {
		return nil, err
	}
	return st, nil
}

// encodeCredential packs raw gotd session bytes into the opaque credential
// form stored in the accounts file.
func encodeCredential(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
