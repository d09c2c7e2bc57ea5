package telephony

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
)

// nrModemManager is the first ModemManager release that reports the 5GNR access technology.
var nrModemManager = mustConstraint(">= 1.14")

// accessTechnologies maps ModemManager access technologies to a variant, best first.
var accessTechnologies = []struct {
	names []string
	build func(kv map[string]string) platform.CellInfo
}{
	{[]string{"5gnr"}, nrCell},
	{[]string{"lte", "lte-cat-m", "lte-nb-iot"}, lteCell},
	{[]string{"hspa-plus", "hspa", "hsupa", "hsdpa", "umts"}, wcdmaCell},
	{[]string{"edge", "gprs", "gsm", "gsm-compact"}, gsmCell},
	{[]string{"evdob", "evdoa", "evdo0", "1xrtt"}, cdmaCell},
}

// ModemManager implements platform.TelephonyManager with ModemManager's mmcli.
// The modem exposes only its serving cell.
type ModemManager struct {
	modemIndex  int
	permissions platform.PermissionChecker
	run         func(ctx context.Context, args ...string) (string, error)
}

var _ platform.TelephonyManager = (*ModemManager)(nil)

// NewModemManager creates a telephony manager for the given modem index.
func NewModemManager(modemIndex int, permissions platform.PermissionChecker) *ModemManager {
	return &ModemManager{
		modemIndex:  modemIndex,
		permissions: permissions,
		run:         runMMCLI,
	}
}

// AllCellInfo returns the serving cell, or no cells when the access technology is unknown.
func (m *ModemManager) AllCellInfo(ctx context.Context) ([]platform.CellInfo, error) {
	if !m.permissions.Granted(platform.ReadPhoneState) {
		return nil, platform.ErrPermissionDenied
	}

	modem := strconv.Itoa(m.modemIndex)
	status, err := m.run(ctx, "-m", modem, "--output-keyvalue")
	if err != nil {
		return nil, err
	}
	loc, err := m.run(ctx, "-m", modem, "--location-get", "--output-keyvalue")
	if err != nil {
		return nil, err
	}
	// Signal reporting needs --signal-setup; missing values are reported as unavailable.
	signal, _ := m.run(ctx, "-m", modem, "--signal-get", "--output-keyvalue")

	kv := parseKeyValues(status + "\n" + loc + "\n" + signal)
	if cell, ok := cellFromModem(kv); ok {
		return []platform.CellInfo{cell}, nil
	}
	return nil, nil
}

// SupportsNR reports whether the installed ModemManager can report NR cells. When the
// version cannot be determined NR is assumed to be supported.
func (m *ModemManager) SupportsNR(ctx context.Context) bool {
	out, err := m.run(ctx, "--version")
	if err != nil {
		return true
	}
	return modemManagerSupportsNR(out)
}

// modemManagerSupportsNR checks the first line of mmcli --version ("mmcli 1.20.2").
func modemManagerSupportsNR(versionOutput string) bool {
	line, _, _ := strings.Cut(strings.TrimSpace(versionOutput), "\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return true
	}
	v, err := semver.NewVersion(fields[len(fields)-1])
	if err != nil {
		return true
	}
	return nrModemManager.Check(v)
}

func runMMCLI(ctx context.Context, args ...string) (string, error) {
	if _, err := exec.LookPath("mmcli"); err != nil {
		return "", fmt.Errorf("mmcli not found: %w", platform.ErrServiceUnavailable)
	}

	output, err := exec.CommandContext(ctx, "mmcli", args...).Output()
	if err != nil {
		return "", fmt.Errorf("failed to run mmcli %s: %w", strings.Join(args, " "), err)
	}
	return string(output), nil
}

// parseKeyValues reads mmcli --output-keyvalue lines ("key : value").
func parseKeyValues(output string) map[string]string {
	kv := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" || value == "--" {
			continue
		}
		kv[key] = value
	}
	return kv
}

// cellFromModem builds the variant for the best access technology the modem reports.
func cellFromModem(kv map[string]string) (platform.CellInfo, bool) {
	techs := make(map[string]struct{})
	for key, value := range kv {
		if strings.HasPrefix(key, "modem.generic.access-technologies.value") {
			techs[strings.ToLower(value)] = struct{}{}
		}
	}

	for _, at := range accessTechnologies {
		for _, name := range at.names {
			if _, ok := techs[name]; ok {
				return at.build(kv), true
			}
		}
	}
	return nil, false
}

func gsmCell(kv map[string]string) platform.CellInfo {
	mcc, mnc := operator(kv)
	return platform.CellInfoGsm{
		MCC: mcc, MNC: mnc,
		CID: hexInt(kv["modem.location.3gpp.cid"]),
		LAC: hexInt(kv["modem.location.3gpp.lac"]),
		Dbm: dbm(kv, "modem.signal.gsm.rssi"),
	}
}

func wcdmaCell(kv map[string]string) platform.CellInfo {
	mcc, mnc := operator(kv)
	return platform.CellInfoWcdma{
		MCC: mcc, MNC: mnc,
		CID: hexInt(kv["modem.location.3gpp.cid"]),
		LAC: hexInt(kv["modem.location.3gpp.lac"]),
		Dbm: dbm(kv, "modem.signal.umts.rscp", "modem.signal.umts.rssi"),
	}
}

func lteCell(kv map[string]string) platform.CellInfo {
	mcc, mnc := operator(kv)
	return platform.CellInfoLte{
		MCC: mcc, MNC: mnc,
		CI:  hexInt(kv["modem.location.3gpp.cid"]),
		TAC: hexInt(firstOf(kv, "modem.location.3gpp.tac", "modem.location.3gpp.lac")),
		Dbm: dbm(kv, "modem.signal.lte.rsrp", "modem.signal.lte.rssi"),
	}
}

func nrCell(kv map[string]string) platform.CellInfo {
	mcc, mnc := operator(kv)
	nci, err := strconv.ParseInt(kv["modem.location.3gpp.cid"], 16, 64)
	if err != nil {
		nci = math.MaxInt64
	}
	return platform.CellInfoNr{
		MCC: mcc, MNC: mnc,
		NCI: nci,
		TAC: hexInt(firstOf(kv, "modem.location.3gpp.tac", "modem.location.3gpp.lac")),
		Dbm: dbm(kv, "modem.signal.5g.rsrp"),
	}
}

func cdmaCell(kv map[string]string) platform.CellInfo {
	return platform.CellInfoCdma{
		SystemID:      decInt(kv["modem.cdma.sid"]),
		NetworkID:     decInt(kv["modem.cdma.nid"]),
		BasestationID: platform.Unavailable,
		Dbm:           dbm(kv, "modem.signal.cdma1x.rssi", "modem.signal.evdo.rssi"),
	}
}

// operator returns MCC and MNC, preferring the location report over the operator code.
func operator(kv map[string]string) (string, string) {
	mcc, mnc := kv["modem.location.3gpp.mcc"], kv["modem.location.3gpp.mnc"]
	if mcc != "" && mnc != "" {
		return mcc, mnc
	}
	if code := kv["modem.3gpp.operator-code"]; len(code) >= 5 {
		return code[:3], code[3:]
	}
	return "", ""
}

func firstOf(kv map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := kv[k]; ok {
			return v
		}
	}
	return ""
}

func hexInt(v string) int {
	n, err := strconv.ParseInt(v, 16, 64)
	if err != nil || n > math.MaxInt32 {
		return platform.Unavailable
	}
	return int(n)
}

func decInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return platform.Unavailable
	}
	return n
}

// dbm returns the first reported signal level among keys, rounded to whole dBm.
func dbm(kv map[string]string, keys ...string) int {
	for _, k := range keys {
		if f, err := strconv.ParseFloat(kv[k], 64); err == nil {
			return int(math.Round(f))
		}
	}
	return platform.Unavailable
}
