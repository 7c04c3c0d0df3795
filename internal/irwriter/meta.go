package irwriter

import (
	"encoding/xml"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/specialistvlad/modelopt/internal/version"
)

// unsetKey holds the bracketed list of options the user left unset.
const unsetKey = "unset"

// NewRunID identifies one conversion in the IR meta data.
func NewRunID() string {
	return uuid.New().String()
}

// metaData renders the run metadata. Options are written in name order,
// the unset list last.
func metaData(meta map[string]string, runID string) *xmlMetaData {
	md := &xmlMetaData{
		MOVersion: xmlValue{Value: version.String()},
		RunID:     xmlValue{Value: runID},
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		if k != unsetKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		md.CLI.Entries = append(md.CLI.Entries, xmlAttrs{
			XMLName: xml.Name{Local: k},
			Attrs:   []xml.Attr{{Name: xml.Name{Local: "value"}, Value: meta[k]}},
		})
	}
	if unset, ok := meta[unsetKey]; ok {
		md.CLI.Entries = append(md.CLI.Entries, xmlAttrs{
			XMLName: xml.Name{Local: unsetKey},
			Attrs: []xml.Attr{{
				Name:  xml.Name{Local: "unset_cli_parameters"},
				Value: strings.Trim(unset, "[]"),
			}},
		})
	}
	return md
}
