package signer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionIntent_DirectPathLooksUpName(t *testing.T) {
	tx := &TransactionPayload{From: testAccount, To: votingAddr, Description: "Create a new vote"}
	path := []PathNode{{To: votingAddr, Transaction: tx}}

	st := stateFromTransactionBag(&TransactionBag{Path: path, Transaction: tx}, testRegistry())
	assert.True(t, st.direct)
	require.Len(t, st.actionPaths, 1)
	assert.Equal(t, "Voting", st.intent.Name)
	assert.Equal(t, "Create a new vote", st.intent.Description)
	assert.Equal(t, votingAddr, *st.intent.To)
}

func TestTransactionIntent_DirectPathUnknownApp(t *testing.T) {
	tx := &TransactionPayload{From: testAccount, To: financeAddr}
	st := stateFromTransactionBag(&TransactionBag{Path: []PathNode{{To: financeAddr}}, Transaction: tx}, testRegistry())
	assert.Equal(t, "", st.intent.Name)
}

func TestTransactionIntent_ForwardedPathUsesLastNode(t *testing.T) {
	first := &TransactionPayload{From: testAccount, To: tokensAddr, Description: "forward"}
	tx := &TransactionPayload{From: testAccount, To: financeAddr}
	path := []PathNode{
		{Name: "Tokens", To: tokensAddr, Description: "Forward", Transaction: first},
		{Name: "Voting", To: votingAddr, Description: "Create vote"},
		{Name: "Finance", To: financeAddr, Description: "Make payment"},
	}

	st := stateFromTransactionBag(&TransactionBag{Path: path, Transaction: tx}, testRegistry())
	assert.False(t, st.direct)
	assert.Equal(t, "Finance", st.intent.Name)
	assert.Equal(t, "Make payment", st.intent.Description)
	assert.Equal(t, financeAddr, *st.intent.To)
	assert.Same(t, first, transactionToSend(path, tx))
}

func TestStateFromTransactionBag_EmptyPath(t *testing.T) {
	tx := &TransactionPayload{To: votingAddr}
	st := stateFromTransactionBag(&TransactionBag{Transaction: tx}, testRegistry())
	assert.False(t, st.direct)
	assert.Empty(t, st.actionPaths)
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, IsTxSignRequest(StatusSigned))
	assert.False(t, IsTxSignRequest(StatusMessageSigned))
	assert.True(t, ConfirmingSignature(StatusConfirmingMsgSign))
	assert.False(t, ConfirmingSignature(StatusSigning))
	assert.True(t, SignatureSuccess(StatusMessageSigned))
	assert.False(t, SignatureSuccess(StatusError))
	assert.Equal(t, "ERROR_SIGNING_MSG", StatusErrorSigningMsg.String())
}
