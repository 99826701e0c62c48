package purchase

import (
	"time"

	"github.com/shestoi/iapdemo/internal/storekit"
)

// Record is a completed purchase or restoration.
// For restorations ProductID and Date come from the original transaction
// and RestoreDate is when the restoring transaction itself happened.
type Record struct {
	TransactionID         string
	ProductID             string
	Date                  time.Time
	RestoreDate           time.Time
	OriginalTransactionID string
	OriginalDate          time.Time
	Restored              bool
	Downloads             []storekit.Download
}

func newRecord(tx storekit.Transaction) Record {
	r := Record{
		TransactionID: tx.ID,
		ProductID:     tx.ProductID(),
		Date:          tx.Date,
		Downloads:     append([]storekit.Download(nil), tx.Downloads...),
	}
	if tx.State == storekit.StateRestored && tx.Original != nil {
		r.Restored = true
		r.RestoreDate = tx.Date
		r.ProductID = tx.Original.ProductID()
		r.Date = tx.Original.Date
		r.OriginalTransactionID = tx.Original.ID
		r.OriginalDate = tx.Original.Date
	} else if tx.State == storekit.StateRestored {
		r.Restored = true
		r.RestoreDate = tx.Date
	}
	return r
}
