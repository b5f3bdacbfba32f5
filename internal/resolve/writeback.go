package resolve

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/model"
	"github.com/propscan/ownerdata/internal/store"
)

// startWriteback persists owner fields discovered outside the store onto
// the record state 1 matched. Best-effort: failures are logged, never
// surfaced, and by default the patch runs detached from the request so it
// cannot delay the response.
func (r *Resolver) startWriteback(st *resolution) {
	if st.matched == nil {
		return
	}

	var patch store.OwnerPatch
	if st.ownerName != "" && st.ownerSource != model.SourceStore {
		patch.OwnerName = st.ownerName
	}
	if st.mailingAddress != "" && st.mailingSource != model.SourceStore {
		patch.MailingAddress = st.mailingAddress
	}
	if patch.IsZero() {
		return
	}

	source := laterSource(st.ownerSource, st.mailingSource)
	rec := *st.matched

	if r.syncWriteback {
		r.writeBack(rec, patch, source)
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.writeBack(rec, patch, source)
	}()
}

func (r *Resolver) writeBack(rec model.ListingRecord, patch store.OwnerPatch, source model.Source) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writebackTimeout)
	defer cancel()

	if err := r.store.UpdateOwner(ctx, rec.Platform, rec.ID, patch); err != nil {
		zap.L().Warn("write-back failed",
			zap.String("platform", string(rec.Platform)),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		return
	}

	entry := store.AuditEntry{
		ID:             uuid.New(),
		Platform:       rec.Platform,
		RecordID:       rec.ID,
		OwnerName:      patch.OwnerName,
		MailingAddress: patch.MailingAddress,
		Source:         source,
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.store.WriteAudit(ctx, entry); err != nil {
		zap.L().Warn("write-back audit failed",
			zap.String("platform", string(rec.Platform)),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		return
	}

	zap.L().Info("owner data written back",
		zap.String("platform", string(rec.Platform)),
		zap.String("record_id", rec.ID),
		zap.String("source", string(source)),
	)
}
