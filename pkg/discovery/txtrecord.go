package discovery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/osc-protocol/osc-go/pkg/version"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeServiceTXT creates TXT records for an advertised server.
func EncodeServiceTXT(info *ServiceInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	// Required fields
	txt[TXTKeyVersion] = TXTVersion
	txt[TXTKeyProtocol] = ProtocolVersion

	// Optional fields
	if info.ServerName != "" {
		txt[TXTKeyServerName] = info.ServerName
	}
	if info.MaxPacketSize > 0 {
		txt[TXTKeyMaxPacketSize] = strconv.FormatUint(uint64(info.MaxPacketSize), 10)
	}

	return txt
}

// DecodeServiceTXT parses TXT records from a discovered server.
func DecodeServiceTXT(txt TXTRecordMap) (*Service, error) {
	svc := &Service{}

	// Parse protocol version (required)
	var ok bool
	svc.Protocol, ok = txt[TXTKeyProtocol]
	if !ok || svc.Protocol == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyProtocol)
	}
	if _, err := version.Parse(svc.Protocol); err != nil {
		return nil, fmt.Errorf("%w: bad %s %q", ErrInvalidTXTRecord, TXTKeyProtocol, svc.Protocol)
	}

	// Optional fields
	svc.ServerName = txt[TXTKeyServerName]

	if sizeStr, ok := txt[TXTKeyMaxPacketSize]; ok {
		size, err := strconv.ParseUint(sizeStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad %s %q", ErrInvalidTXTRecord, TXTKeyMaxPacketSize, sizeStr)
		}
		svc.MaxPacketSize = uint32(size)
	}

	return svc, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value"
// strings, the format mDNS libraries expect.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a
// TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is usable for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameInvalid)
	}
	if len(name) > MaxInstanceNameLen {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInstanceNameInvalid, len(name), MaxInstanceNameLen)
	}
	return nil
}
