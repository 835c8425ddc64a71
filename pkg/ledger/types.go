package ledger

import "time"

// NotarizationRef points at one notarization output committed on the home
// chain, the minimal handle the ledger keeps per height.
type NotarizationRef struct {
	SystemID   string `json:"systemId"`
	TxID       string `json:"txid"`
	Vout       int    `json:"voutnum"`
	Height     int64  `json:"height"`
	RecordHash string `json:"recordHash"`
	Earned     bool   `json:"earned"` // false for accepted notarizations
}

// SystemTipState is the confirmed-tip view the ledger keeps for one notary
// system: where the confirmed chain ends and how many unconfirmed records
// are still competing past it.
type SystemTipState struct {
	SystemID        string          `json:"systemId"`
	ConfirmedTip    NotarizationRef `json:"confirmedTip"`
	ConfirmedHeight int64           `json:"confirmedHeight"`
	PendingCount    int             `json:"pendingCount"`
	LastAdvanced    time.Time       `json:"lastAdvanced"`
}

// SystemBlockMeta stores per-block metadata: which notarization output (if
// any) the block carried, and for which system.
type SystemBlockMeta struct {
	Height int64     `json:"height"`
	Hash   string    `json:"hash"`
	Time   time.Time `json:"time"`

	NotarizedSystem  string `json:"notarizedSystem,omitempty"`
	NotarizationTx   string `json:"notarizationTx,omitempty"`
	NotarizationVout int    `json:"notarizationVout,omitempty"`
}

// LedgerMeta stores global metadata for the notarization ledger.
type LedgerMeta struct {
	LatestHeight  int64     `json:"latestHeight"`
	LastBlockTime time.Time `json:"lastBlockTime"`
	Systems       []string  `json:"systems"` // every system_id a tip state exists for
}

// FinalizationMarker records that the finalization of one notarization
// output (TxID/Vout) for a system reached a terminal state, so restarts
// don't re-drive the same spend.
type FinalizationMarker struct {
	SystemID   string    `json:"systemId"`
	TxID       string    `json:"txid"`
	Vout       int       `json:"voutnum"`
	Confirmed  bool      `json:"confirmed"` // false means rejected
	AtHeight   int64     `json:"atHeight"`
	MarkedTime time.Time `json:"markedTime"`
}

// ABCIState stores the application state needed for CometBFT recovery after
// restart, so Info() reports a LastBlockHeight/AppHash consistent with what
// was last committed.
type ABCIState struct {
	LastBlockHeight  int64  `json:"lastBlockHeight"`
	LastBlockAppHash []byte `json:"lastBlockAppHash"`
}
