package blockchain

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/voting"

	"github.com/hyperledger/sawtooth-sdk-go/protobuf/transaction_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/signing"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

const (
	batchSubmitAPI         string = "batches"
	batchStatusAPI         string = "batch_statuses"
	stateAPI               string = "state"
	contentTypeOctetStream string = "application/octet-stream"

	statusCommitted = "COMMITTED"
	statusInvalid   = "INVALID"

	// seconds the REST API may hold a status request
	defaultWait uint = 5
)

var errNotFound = errors.New("responded with status 404")

// TransactionRejectedError is returned when the validator marked the batch
// invalid. It unwraps to the ledger rejection when the message names one.
type TransactionRejectedError struct {
	BatchID string
	Message string
}

func (e *TransactionRejectedError) Error() string {
	return "transaction rejected: " + e.Message
}

func (e *TransactionRejectedError) Unwrap() error {
	return voting.RejectionFromMessage(e.Message)
}

// Client submits voting transactions to a validator's REST API, signed with
// the key of the caller.
type Client struct {
	logger     *zap.Logger
	url        string
	signer     *signing.Signer
	httpClient *http.Client
	wait       uint
}

func NewClient(logger *zap.Logger, validatorRestAPIUrl string, signer *signing.Signer) *Client {
	if !strings.HasPrefix(validatorRestAPIUrl, "http://") && !strings.HasPrefix(validatorRestAPIUrl, "https://") {
		validatorRestAPIUrl = "http://" + validatorRestAPIUrl
	}
	return &Client{
		logger:     logger,
		url:        strings.TrimSuffix(validatorRestAPIUrl, "/"),
		signer:     signer,
		httpClient: &http.Client{},
		wait:       defaultWait,
	}
}

// Caller is the ledger identity of the client's signer.
func (c *Client) Caller() string {
	return c.signer.GetPublicKey().AsHex()
}

// Execute submits cmd and waits until its batch is committed or rejected.
func (c *Client) Execute(ctx context.Context, cmd voting.Command) (batchID string, err error) {
	batchID, err = c.Submit(ctx, cmd)
	if err != nil {
		return "", err
	}
	return batchID, c.WaitForBatch(ctx, batchID)
}

// Deploy creates the ledger on chain with the client's signer as the owner.
func (c *Client) Deploy(ctx context.Context) (string, error) {
	return c.Execute(ctx, voting.Command{Action: voting.ActionDeploy})
}

// Submit sends cmd in a single transaction batch without waiting for it.
func (c *Client) Submit(ctx context.Context, cmd voting.Command) (batchID string, err error) {
	transaction, err := NewTransaction(cmd, c.signer)
	if err != nil {
		return "", errors.New("failed to create the transaction: " + err.Error())
	}

	rawBatchList, err := createBatchList([]*transaction_pb2.Transaction{transaction}, c.signer)
	if err != nil {
		return "", fmt.Errorf("unable to construct batch list: %v", err)
	}
	batchID = rawBatchList.Batches[0].HeaderSignature

	batchList, err := proto.Marshal(rawBatchList)
	if err != nil {
		return "", fmt.Errorf("unable to serialize batch list: %v", err)
	}

	if _, err := c.sendRequest(ctx, batchSubmitAPI, batchList, contentTypeOctetStream); err != nil {
		return "", err
	}
	c.logger.Debug("batch submitted", zap.String("batchID", batchID), zap.String("action", cmd.String()))

	return batchID, nil
}

type batchStatusResponse struct {
	Data []struct {
		ID                  string `yaml:"id"`
		Status              string `yaml:"status"`
		InvalidTransactions []struct {
			ID      string `yaml:"id"`
			Message string `yaml:"message"`
		} `yaml:"invalid_transactions"`
	} `yaml:"data"`
}

// WaitForBatch polls the batch status until it is committed or invalid, or
// until ctx is done. Pending and unknown statuses are polled again.
func (c *Client) WaitForBatch(ctx context.Context, batchID string) error {
	for {
		status, message, err := c.getStatus(ctx, batchID)
		if err != nil {
			return err
		}

		switch status {
		case statusCommitted:
			c.logger.Debug("batch committed", zap.String("batchID", batchID))
			return nil
		case statusInvalid:
			return &TransactionRejectedError{BatchID: batchID, Message: message}
		}

		c.logger.Debug("batch not committed yet", zap.String("batchID", batchID), zap.String("status", status))
		select {
		case <-ctx.Done():
			return fmt.Errorf("batch %s still %s: %w", batchID, status, ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (c *Client) getStatus(ctx context.Context, batchID string) (status string, message string, err error) {
	query := url.Values{}
	query.Set("id", batchID)
	query.Set("wait", fmt.Sprint(c.wait))

	response, err := c.sendRequest(ctx, batchStatusAPI+"?"+query.Encode(), nil, "")
	if err != nil {
		return "", "", err
	}

	var decoded batchStatusResponse
	if err := yaml.Unmarshal(response, &decoded); err != nil {
		return "", "", fmt.Errorf("error reading response: %v", err)
	}
	if len(decoded.Data) == 0 {
		return "", "", errors.New("batch status response has no data")
	}

	entry := decoded.Data[0]
	for _, invalid := range entry.InvalidTransactions {
		message = invalid.Message
	}
	return entry.Status, message, nil
}

// GetLedger reads the committed ledger entry from the chain state.
func (c *Client) GetLedger(ctx context.Context) (voting.State, error) {
	response, err := c.sendRequest(ctx, stateAPI+"/"+votingfamily.GetLedgerAddress(), nil, "")
	if errors.Is(err, errNotFound) {
		return voting.State{}, voting.ErrNotDeployed
	}
	if err != nil {
		return voting.State{}, err
	}

	var entry struct {
		Data string `yaml:"data"`
	}
	if err := yaml.Unmarshal(response, &entry); err != nil {
		return voting.State{}, fmt.Errorf("error reading response: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(entry.Data)
	if err != nil {
		return voting.State{}, errors.New("state entry is not valid base64: " + err.Error())
	}
	if len(raw) == 0 {
		return voting.State{}, voting.ErrNotDeployed
	}

	return votingfamily.DecodeState(raw)
}

func (c *Client) sendRequest(
	ctx context.Context,
	apiSuffix string,
	data []byte,
	contentType string) ([]byte, error) {

	endpoint := fmt.Sprintf("%s/%s", c.url, apiSuffix)

	var request *http.Request
	var err error
	if len(data) > 0 {
		request, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(data))
	} else {
		request, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create the request: %v", err)
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to REST API: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %v", err)
	}

	if response.StatusCode == http.StatusNotFound {
		c.logger.Debug("not found", zap.String("url", endpoint), zap.ByteString("body", body))
		return nil, errNotFound
	} else if response.StatusCode >= 400 {
		return nil, fmt.Errorf("error %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
