package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// KV defines the key-value store interface
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// Store provides high-level access to the notarization ledger in the KV
// store: per-system confirmed tips, per-height notarization refs, and the
// ABCI recovery state.
//
// CONCURRENCY: Store assumes single-writer access and is designed to be
// called from the consensus commit thread only. Wrap it with your own
// synchronization if you need it from multiple goroutines.
type Store struct {
	kv KV
}

// NewStore creates a new Store instance
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// ====== KV Key Layout ======

var (
	keyMeta        = []byte("notaryledger:meta")    // -> LedgerMeta
	keyTipPrefix   = []byte("notaryledger:tip:")    // + system_id -> SystemTipState
	keyRefPrefix   = []byte("notaryledger:ref:")    // + system_id + ":" + big-endian height -> NotarizationRef
	keyBlockPrefix = []byte("notaryledger:block:")  // + big-endian height -> SystemBlockMeta
	keyLatestBlock = []byte("notaryledger:latest")  // -> SystemBlockMeta
	keyFinPrefix   = []byte("notaryledger:final:")  // + txid + ":" + vout -> FinalizationMarker

	keyABCIState = []byte("abci:state") // -> ABCIState
)

func tipKey(systemID string) []byte {
	return append(append([]byte(nil), keyTipPrefix...), []byte(systemID)...)
}

func refKey(systemID string, height int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(height))
	k := append(append([]byte(nil), keyRefPrefix...), []byte(systemID)...)
	k = append(k, ':')
	return append(k, b...)
}

func blockKey(height int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(height))
	return append(append([]byte(nil), keyBlockPrefix...), b...)
}

func finalizationKey(txid string, vout int) []byte {
	k := append(append([]byte(nil), keyFinPrefix...), []byte(txid)...)
	return append(k, []byte(fmt.Sprintf(":%d", vout))...)
}

// ====== Commit-time updates ======

// UpdateOnCommit records a committed block and, when the block carried a
// notarization output, the per-height ref for its system.
func (s *Store) UpdateOnCommit(height int64, hash string, t time.Time, ref *NotarizationRef) error {
	meta := &SystemBlockMeta{Height: height, Hash: hash, Time: t}
	if ref != nil {
		meta.NotarizedSystem = ref.SystemID
		meta.NotarizationTx = ref.TxID
		meta.NotarizationVout = ref.Vout
	}

	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal SystemBlockMeta: %w", err)
	}
	if err := s.kv.Set(blockKey(height), b); err != nil {
		return fmt.Errorf("failed to set block key: %w", err)
	}
	if err := s.kv.Set(keyLatestBlock, b); err != nil {
		return fmt.Errorf("failed to set latest block key: %w", err)
	}

	gm, err := s.loadMeta()
	if err != nil {
		if err == ErrMetaNotFound {
			gm = &LedgerMeta{}
		} else {
			return fmt.Errorf("failed to load ledger meta: %w", err)
		}
	}
	if height > gm.LatestHeight {
		gm.LatestHeight = height
		gm.LastBlockTime = t
	}

	mb, err := json.Marshal(gm)
	if err != nil {
		return fmt.Errorf("failed to marshal LedgerMeta: %w", err)
	}
	if err := s.kv.Set(keyMeta, mb); err != nil {
		return fmt.Errorf("failed to set ledger meta: %w", err)
	}

	if ref != nil {
		return s.SaveNotarizationRef(ref)
	}
	return nil
}

// SaveNotarizationRef stores a notarization ref under its system and
// height.
func (s *Store) SaveNotarizationRef(ref *NotarizationRef) error {
	b, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("failed to marshal NotarizationRef: %w", err)
	}
	return s.kv.Set(refKey(ref.SystemID, ref.Height), b)
}

// GetNotarizationRef loads the notarization ref a system committed at a
// height, or ErrRefNotFound.
func (s *Store) GetNotarizationRef(systemID string, height int64) (*NotarizationRef, error) {
	b, err := s.kv.Get(refKey(systemID, height))
	if err != nil {
		return nil, fmt.Errorf("failed to get notarization ref: %w", err)
	}
	if b == nil {
		return nil, ErrRefNotFound
	}
	var ref NotarizationRef
	if err := json.Unmarshal(b, &ref); err != nil {
		return nil, fmt.Errorf("failed to unmarshal NotarizationRef: %w", err)
	}
	return &ref, nil
}

// ====== Confirmed-tip state ======

// AdvanceConfirmedTip records that a system's confirmed tip moved to ref,
// updating the tip state and registering the system in the global meta.
func (s *Store) AdvanceConfirmedTip(systemID string, ref NotarizationRef, pendingCount int, t time.Time) error {
	tip := &SystemTipState{
		SystemID:        systemID,
		ConfirmedTip:    ref,
		ConfirmedHeight: ref.Height,
		PendingCount:    pendingCount,
		LastAdvanced:    t,
	}
	b, err := json.Marshal(tip)
	if err != nil {
		return fmt.Errorf("failed to marshal SystemTipState: %w", err)
	}
	if err := s.kv.Set(tipKey(systemID), b); err != nil {
		return fmt.Errorf("failed to set tip key: %w", err)
	}

	gm, err := s.loadMeta()
	if err != nil {
		if err == ErrMetaNotFound {
			gm = &LedgerMeta{}
		} else {
			return fmt.Errorf("failed to load ledger meta: %w", err)
		}
	}
	found := false
	for _, sys := range gm.Systems {
		if sys == systemID {
			found = true
			break
		}
	}
	if !found {
		gm.Systems = append(gm.Systems, systemID)
		sort.Strings(gm.Systems)
	}
	mb, err := json.Marshal(gm)
	if err != nil {
		return fmt.Errorf("failed to marshal LedgerMeta: %w", err)
	}
	return s.kv.Set(keyMeta, mb)
}

// GetConfirmedTip loads a system's tip state, or ErrTipNotFound.
func (s *Store) GetConfirmedTip(systemID string) (*SystemTipState, error) {
	b, err := s.kv.Get(tipKey(systemID))
	if err != nil {
		return nil, fmt.Errorf("failed to get tip key: %w", err)
	}
	if b == nil {
		return nil, ErrTipNotFound
	}
	var tip SystemTipState
	if err := json.Unmarshal(b, &tip); err != nil {
		return nil, fmt.Errorf("failed to unmarshal SystemTipState: %w", err)
	}
	return &tip, nil
}

// ====== Finalization markers ======

// MarkFinalized records that the finalization of a notarization output
// reached a terminal state at a height.
func (s *Store) MarkFinalized(m *FinalizationMarker) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal FinalizationMarker: %w", err)
	}
	return s.kv.Set(finalizationKey(m.TxID, m.Vout), b)
}

// IsFinalized reports whether the finalization of a notarization output
// already reached a terminal state, and which one.
func (s *Store) IsFinalized(txid string, vout int) (*FinalizationMarker, bool, error) {
	b, err := s.kv.Get(finalizationKey(txid, vout))
	if err != nil {
		return nil, false, fmt.Errorf("failed to get finalization key: %w", err)
	}
	if b == nil {
		return nil, false, nil
	}
	var m FinalizationMarker
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal FinalizationMarker: %w", err)
	}
	return &m, true, nil
}

// ====== Global meta / latest block ======

func (s *Store) loadMeta() (*LedgerMeta, error) {
	b, err := s.kv.Get(keyMeta)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger meta: %w", err)
	}
	if b == nil {
		return nil, ErrMetaNotFound
	}
	var m LedgerMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LedgerMeta: %w", err)
	}
	return &m, nil
}

// GetMeta returns the global ledger metadata, or ErrMetaNotFound before the
// first commit.
func (s *Store) GetMeta() (*LedgerMeta, error) {
	return s.loadMeta()
}

// GetLatestBlock returns the most recently committed block meta, or
// ErrMetaNotFound before the first commit.
func (s *Store) GetLatestBlock() (*SystemBlockMeta, error) {
	b, err := s.kv.Get(keyLatestBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block: %w", err)
	}
	if b == nil {
		return nil, ErrMetaNotFound
	}
	var m SystemBlockMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal SystemBlockMeta: %w", err)
	}
	return &m, nil
}

// GetBlock returns the block meta committed at a height.
func (s *Store) GetBlock(height int64) (*SystemBlockMeta, error) {
	b, err := s.kv.Get(blockKey(height))
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	if b == nil {
		return nil, ErrRefNotFound
	}
	var m SystemBlockMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal SystemBlockMeta: %w", err)
	}
	return &m, nil
}

// ====== ABCI state persistence ======

// SaveABCIState persists the ABCI application state for CometBFT recovery.
func (s *Store) SaveABCIState(state *ABCIState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal ABCIState: %w", err)
	}
	return s.kv.Set(keyABCIState, b)
}

// LoadABCIState loads the persisted ABCI application state. Returns a zero
// state when none has been saved yet.
func (s *Store) LoadABCIState() (*ABCIState, error) {
	b, err := s.kv.Get(keyABCIState)
	if err != nil {
		return nil, fmt.Errorf("failed to get ABCI state: %w", err)
	}
	if b == nil {
		return &ABCIState{}, nil
	}
	var st ABCIState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ABCIState: %w", err)
	}
	return &st, nil
}
