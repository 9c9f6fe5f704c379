package server

import (
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/lumeforge/venued/internal/auth"
	"github.com/lumeforge/venued/internal/core/tx"
)

// submitParams is the wire form of a submission. The transaction object
// carries its type and account alongside the type-specific fields; the
// signature covers the canonical digest of the whole transaction.
type submitParams struct {
	Tx        json.RawMessage `json:"tx"`
	PublicKey string          `json:"public_key,omitempty"`
	Signature string          `json:"signature,omitempty"`
}

func (s *Server) submit(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p submitParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	if len(p.Tx) == 0 {
		return nil, errInvalidParams("missing tx")
	}

	// The type field picks the concrete transaction; the same payload then
	// fills in its fields.
	var head struct {
		Type tx.Type `json:"type"`
	}
	if err := json.Unmarshal(p.Tx, &head); err != nil {
		return nil, errInvalidParams("malformed tx: " + err.Error())
	}
	txn, err := tx.New(head.Type)
	if err != nil {
		return nil, errInvalidParams(err.Error())
	}
	if err := json.Unmarshal(p.Tx, txn); err != nil {
		return nil, errInvalidParams("malformed tx: " + err.Error())
	}

	result, rpcError := s.applySubmission(txn, p)
	if rpcError != nil {
		return nil, rpcError
	}

	return map[string]any{
		"engine_result": result.Result.String(),
		"applied":       result.Applied,
		"changes":       result.Changes,
		"message":       result.Message,
	}, nil
}

func (s *Server) applySubmission(txn tx.Transaction, p submitParams) (tx.ApplyResult, *RPCError) {
	if p.Signature == "" && p.PublicKey == "" {
		if s.cfg.RequireSignatures {
			return tx.ApplyResult{}, errInvalidParams("submission must be signed")
		}
		return s.engine.Apply(txn), nil
	}

	pubKey, err := hex.DecodeString(p.PublicKey)
	if err != nil {
		return tx.ApplyResult{}, errInvalidParams("invalid public_key: " + err.Error())
	}
	signature, err := hex.DecodeString(p.Signature)
	if err != nil {
		return tx.ApplyResult{}, errInvalidParams("invalid signature: " + err.Error())
	}

	digest, err := auth.TxDigest(txn)
	if err != nil {
		return tx.ApplyResult{}, errInternal("failed to compute tx digest: " + err.Error())
	}
	signer, err := auth.NewSignerAuth(pubKey, signature, digest)
	if err != nil {
		return tx.ApplyResult{}, errInvalidParams(err.Error())
	}

	return s.engine.ApplyWithAuth(txn, signer), nil
}
