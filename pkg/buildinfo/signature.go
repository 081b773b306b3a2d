package buildinfo

import (
	"strings"

	"github.com/ProtonMail/gopenpgp/v3/crypto"
)

// SignatureKeyIDs returns the hex issuer key ids of an armored OpenPGP
// signature block. It returns nil when the block does not parse; an
// unverifiable signature is not a parse failure for the build record.
func SignatureKeyIDs(armored string) []string {
	armored = strings.TrimSpace(armored)
	if armored == "" {
		return nil
	}
	msg, err := crypto.NewPGPMessageFromArmored(armored)
	if err != nil {
		return nil
	}
	ids, ok := msg.HexSignatureKeyIDs()
	if !ok {
		return nil
	}
	return ids
}
