/**
 * Copyright 2018 Intel Corporation
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 * ------------------------------------------------------------------------------
 */

// based on https://github.com/hyperledger/sawtooth-sdk-go/blob/21f3d02d2446b6a91a945c93a8b94b1ddf616841/examples/intkey_go/src/sawtooth_intkey_client/intkey_client.go

package blockchain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/hashing"
	"voting-ledger/internal/voting"

	"github.com/google/uuid"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/batch_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/transaction_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/signing"
	"google.golang.org/protobuf/proto"
)

// NewTransaction wraps cmd into a voting family transaction signed by signer.
// Every transaction reads and writes the single ledger entry.
func NewTransaction(cmd voting.Command, signer *signing.Signer) (*transaction_pb2.Transaction, error) {

	payloadDump, err := votingfamily.EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}

	addresses := []string{votingfamily.GetLedgerAddress()}

	// Construct TransactionHeader
	rawTransactionHeader := transaction_pb2.TransactionHeader{
		SignerPublicKey:  signer.GetPublicKey().AsHex(),
		FamilyName:       votingfamily.FamilyName,
		FamilyVersion:    votingfamily.FamilyVersion,
		Nonce:            uuid.NewString(),
		BatcherPublicKey: signer.GetPublicKey().AsHex(),
		Inputs:           addresses,
		Outputs:          addresses,
		PayloadSha512:    hashing.Calculate(payloadDump),
	}

	transactionHeader, err := proto.Marshal(&rawTransactionHeader)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize transaction header: %v", err)
	}

	// Signature of TransactionHeader
	transactionHeaderSignature := hex.EncodeToString(
		signer.Sign(transactionHeader))

	// Construct Transaction
	return &transaction_pb2.Transaction{
		Header:          transactionHeader,
		HeaderSignature: transactionHeaderSignature,
		Payload:         payloadDump,
	}, nil
}

func createBatchList(
	transactions []*transaction_pb2.Transaction, signer *signing.Signer) (*batch_pb2.BatchList, error) {

	if len(transactions) == 0 {
		return nil, errors.New("a batch needs at least one transaction")
	}

	// Get list of TransactionHeader signatures
	transactionSignatures := make([]string, 0, len(transactions))
	for _, transaction := range transactions {
		transactionSignatures =
			append(transactionSignatures, transaction.HeaderSignature)
	}

	// Construct BatchHeader
	rawBatchHeader := batch_pb2.BatchHeader{
		SignerPublicKey: signer.GetPublicKey().AsHex(),
		TransactionIds:  transactionSignatures,
	}
	batchHeader, err := proto.Marshal(&rawBatchHeader)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize batch header: %v", err)
	}

	// Signature of BatchHeader
	batchHeaderSignature := hex.EncodeToString(
		signer.Sign(batchHeader))

	// Construct Batch
	batch := batch_pb2.Batch{
		Header:          batchHeader,
		Transactions:    transactions,
		HeaderSignature: batchHeaderSignature,
	}

	// Construct BatchList
	return &batch_pb2.BatchList{
		Batches: []*batch_pb2.Batch{&batch},
	}, nil
}
