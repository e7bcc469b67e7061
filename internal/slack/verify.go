// Package slack implements the inbound side of the Slack integration:
// request signature verification, webhook payload decoding, and the Web
// API client used to post replies.
package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Header names Slack attaches to every signed request.
const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"
)

// ReplayWindow is how far a request timestamp may drift from the current
// time before the request is treated as a possible replay.
const ReplayWindow = 300 * time.Second

// signatureVersion is Slack's signing scheme version tag.
const signatureVersion = "v0"

// RejectReason identifies why signature verification failed.
type RejectReason string

const (
	// ReasonMissingHeader covers absent or unparsable timestamp/signature headers.
	ReasonMissingHeader RejectReason = "missing_header"

	// ReasonStaleTimestamp means the timestamp fell outside the replay window.
	ReasonStaleTimestamp RejectReason = "stale_timestamp"

	// ReasonBadSignature means the supplied signature did not match.
	ReasonBadSignature RejectReason = "bad_signature"
)

// RejectedError is returned when an inbound request fails verification.
type RejectedError struct {
	Reason RejectReason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("slack request rejected: %s", e.Reason)
}

// Sign computes the signature Slack would attach to a request with the
// given timestamp and raw body. It exists so the verifier can be tested
// against the signing side of the scheme.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s:%s:", signatureVersion, timestamp)
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks that an inbound request was signed with secret
// and is fresh. body must be the exact bytes received on the wire, before
// any form or JSON decoding. A nil return means the request is authentic;
// any failure is a *RejectedError carrying the reject reason.
func VerifySignature(secret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" || signature == "" {
		return &RejectedError{Reason: ReasonMissingHeader}
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return &RejectedError{Reason: ReasonMissingHeader}
	}

	drift := now.Unix() - ts
	if drift < 0 {
		drift = -drift
	}
	if time.Duration(drift)*time.Second > ReplayWindow {
		return &RejectedError{Reason: ReasonStaleTimestamp}
	}

	expected := Sign(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return &RejectedError{Reason: ReasonBadSignature}
	}

	return nil
}
