package signkeys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"github.com/hyperledger/sawtooth-sdk-go/signing"
)

type UserKeys struct {
	PrivateKey signing.PrivateKey
	PublicKey  signing.PublicKey
}

func (u UserKeys) GetSigner() *signing.Signer {
	cryptoFactory := signing.NewCryptoFactory(signing.NewSecp256k1Context())
	return cryptoFactory.NewSigner(u.PrivateKey)
}

// Address is the identity of the key holder in the ledger: the hex encoded
// public key, as found in the signer field of a transaction header.
func (u UserKeys) Address() string {
	return u.PublicKey.AsHex()
}

// source: https://github.com/ethereum/go-ethereum/blob/86d547707965685cef732aa28c15e6811ea98408/crypto/secp256k1/secp256_test.go#L19
func GenerateKeys() (UserKeys, error) {
	key, err := ecdsa.GenerateKey(btcec.S256(), rand.Reader)
	if err != nil {
		return UserKeys{}, errors.New("failed to generate the keys: " + err.Error())
	}

	privkey := make([]byte, 32)
	blob := key.D.Bytes()
	copy(privkey[32-len(blob):], blob)

	return keysFromPrivate(privkey), nil
}

// ParseKeys restores the key pair from a hex encoded private key.
func ParseKeys(privateKeyHex string) (UserKeys, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(privateKeyHex))
	if err != nil {
		return UserKeys{}, errors.New("private key is not valid hex: " + err.Error())
	}
	if len(raw) != 32 {
		return UserKeys{}, errors.New("private key must be 32 bytes long")
	}

	return keysFromPrivate(raw), nil
}

func keysFromPrivate(privkey []byte) UserKeys {
	private := signing.NewSecp256k1PrivateKey(privkey)
	return UserKeys{
		PrivateKey: private,
		PublicKey:  signing.NewSecp256k1Context().GetPublicKey(private),
	}
}

// ReadKeyFile loads a key written by WriteKeyFile (or by sawtooth keygen).
func ReadKeyFile(path string) (UserKeys, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return UserKeys{}, errors.New("failed to read the key file: " + err.Error())
	}
	return ParseKeys(string(content))
}

// WriteKeyFile stores the private key at <base>.priv and the public key at
// <base>.pub, both hex encoded.
func WriteKeyFile(base string, keys UserKeys) error {
	if err := os.MkdirAll(filepath.Dir(base), 0o700); err != nil {
		return errors.New("failed to create the key directory: " + err.Error())
	}
	if err := os.WriteFile(base+".priv", []byte(keys.PrivateKey.AsHex()+"\n"), 0o600); err != nil {
		return errors.New("failed to write the private key: " + err.Error())
	}
	if err := os.WriteFile(base+".pub", []byte(keys.PublicKey.AsHex()+"\n"), 0o644); err != nil {
		return errors.New("failed to write the public key: " + err.Error())
	}
	return nil
}
