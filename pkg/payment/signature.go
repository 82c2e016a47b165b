package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is how far a signature timestamp may drift from the
// local clock before the signature is rejected as stale.
const DefaultTolerance = 5 * time.Minute

// SignPayload computes a signature header for a payload at the given
// timestamp: "t=<unix>,v1=<hex hmac-sha256 of "<unix>.<payload>">".
// Used by the provider side and by tests.
func SignPayload(secret string, ts time.Time, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// VerifyPayload checks a signature header against the raw payload. The
// header must carry a timestamp within tolerance of now and at least one
// v1 signature matching the expected HMAC.
func VerifyPayload(secret string, payload []byte, header string, now time.Time, tolerance time.Duration) error {
	if header == "" {
		return fmt.Errorf("missing signature header")
	}

	var ts int64
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			parsed, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid signature timestamp")
			}
			ts = parsed
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}

	if ts == 0 || len(sigs) == 0 {
		return fmt.Errorf("signature header missing timestamp or signature")
	}

	if tolerance > 0 {
		drift := now.Sub(time.Unix(ts, 0))
		if drift < 0 {
			drift = -drift
		}
		if drift > tolerance {
			return fmt.Errorf("signature timestamp outside tolerance")
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}
