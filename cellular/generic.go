package cellular

import (
	"context"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/at"
)

const (
	imeiLength     = 15
	iccidMinLength = 19
	iccidMaxLength = 20

	// clockLayout is the +CCLK date/time layout without the zone suffix.
	clockLayout = "06/01/02,15:04:05"
)

// Generic implements the queries that behave the same on every chipset.
// Adapters embed it next to their private state.
type Generic struct {
	*Device
}

func (g Generic) Base() *Device {
	return g.Device
}

// query runs cmd and wraps engine failures as ErrTransport.
func (g Generic) query(ctx context.Context, cmd string) (string, error) {
	if g.Released() {
		return "", ErrReleased
	}
	resp, err := g.AT.Command(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTransport, cmd, err)
	}
	return resp, nil
}

// IMEI returns the 15 digit serial number reported by AT+CGSN.
func (g Generic) IMEI(ctx context.Context) (string, error) {
	resp, err := g.query(ctx, at.CmdIMEI)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == imeiLength && isDigits(line) {
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: IMEI %q", ErrInvalidResponse, resp)
}

// ICCID returns the SIM card identifier reported by AT+CCID. Some modems
// prefix the value with +CCID: or +ICCID:, others send it bare.
func (g Generic) ICCID(ctx context.Context) (string, error) {
	resp, err := g.query(ctx, at.CmdICCID)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, at.RespICCID); ok {
			line = v
		} else if v, ok := strings.CutPrefix(line, "+ICCID:"); ok {
			line = v
		}
		line = strings.Trim(strings.TrimSpace(line), `"`)
		if len(line) >= iccidMinLength && len(line) <= iccidMaxLength && isHexDigits(line) {
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: ICCID %q", ErrInvalidResponse, resp)
}

// CREG returns <stat> from "+CREG: <n>,<stat>".
func (g Generic) CREG(ctx context.Context) (int, error) {
	resp, err := g.query(ctx, at.CmdRegistration)
	if err != nil {
		return 0, err
	}
	v, ok := infoLine(resp, at.RespRegistration)
	if !ok {
		return 0, fmt.Errorf("%w: registration %q", ErrInvalidResponse, resp)
	}
	var mode, stat int
	if _, err := fmt.Sscanf(v, "%d,%d", &mode, &stat); err != nil {
		return 0, fmt.Errorf("%w: registration %q: %w", ErrInvalidResponse, v, err)
	}
	return stat, nil
}

// RSSI returns <rssi> from "+CSQ: <rssi>,<ber>".
func (g Generic) RSSI(ctx context.Context) (int, error) {
	resp, err := g.query(ctx, at.CmdSignalQuality)
	if err != nil {
		return 0, err
	}
	v, ok := infoLine(resp, at.RespSignal)
	if !ok {
		return 0, fmt.Errorf("%w: signal quality %q", ErrInvalidResponse, resp)
	}
	var rssi, ber int
	if _, err := fmt.Sscanf(v, "%d,%d", &rssi, &ber); err != nil {
		return 0, fmt.Errorf("%w: signal quality %q: %w", ErrInvalidResponse, v, err)
	}
	return rssi, nil
}

// ClockGetTime reads the modem real time clock.
func (g Generic) ClockGetTime(ctx context.Context) (time.Time, error) {
	resp, err := g.query(ctx, at.CmdClock)
	if err != nil {
		return time.Time{}, err
	}
	v, ok := infoLine(resp, at.RespClock)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: clock %q", ErrInvalidResponse, resp)
	}
	return parseClock(strings.Trim(v, `"`))
}

// ClockSetTime sets the modem real time clock. The value is written in UTC.
func (g Generic) ClockSetTime(ctx context.Context, t time.Time) error {
	if g.Released() {
		return ErrReleased
	}
	value := t.UTC().Format(clockLayout) + "+00"
	if err := g.AT.CommandSimple(ctx, at.CmdClockSetPattern, value); err != nil {
		return fmt.Errorf("%w: set clock: %w", ErrTransport, err)
	}
	return nil
}

// parseClock parses "yy/MM/dd,hh:mm:ss±zz" where zz counts quarter hours.
// The zone may be missing, in which case UTC is assumed.
func parseClock(v string) (time.Time, error) {
	var yy, mo, dd, hh, mi, ss, tz int
	n, _ := fmt.Sscanf(v, "%d/%d/%d,%d:%d:%d%d", &yy, &mo, &dd, &hh, &mi, &ss, &tz)
	if n < 6 || mo < 1 || mo > 12 || dd < 1 || dd > 31 || hh > 23 || mi > 59 || ss > 59 {
		return time.Time{}, fmt.Errorf("%w: clock %q", ErrInvalidResponse, v)
	}
	loc := time.UTC
	if n == 7 && tz != 0 {
		loc = time.FixedZone("", tz*15*60)
	}
	return time.Date(2000+yy, time.Month(mo), dd, hh, mi, ss, 0, loc), nil
}

// infoLine returns the value of the first line starting with prefix.
func infoLine(resp, prefix string) (string, bool) {
	for _, line := range strings.Split(resp, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), prefix); ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isHexDigits(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}
