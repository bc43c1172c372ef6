package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/rxcompare/price-service/internal/matching"
	"github.com/rxcompare/price-service/internal/types"
)

var (
	drugKeys     = []string{"drug", "drugInfo", "drugDetails"}
	brandKeys    = []string{"brandName", "brand", "name", "drugName"}
	genericKeys  = []string{"genericName", "generic"}
	gsnKeys      = []string{"gsn", "GSN", "genericSequenceNumber"}
	labelKeys    = []string{"label", "name", "description", "display", "value"}
	selectedKeys = []string{"selected", "isSelected", "default", "isDefault"}
	nameListKeys = []string{"names", "drugNames", "results", "suggestions", "data"}
	itemNameKeys = []string{"label", "value", "name", "drugName"}
)

// Drug extracts the optional drug description that accompanies a price
// payload. It returns nil when the payload carries none.
func Drug(raw []byte) (*types.DrugRecord, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &types.SchemaError{Source: "drug", Err: errInvalidJSON}
	}

	root := gjson.ParseBytes(raw)
	var obj gjson.Result
	for _, c := range envelopes(root) {
		if obj = first(c, drugKeys); obj.IsObject() {
			break
		}
	}
	if !obj.IsObject() {
		return nil, nil
	}

	rec := &types.DrugRecord{
		BrandName:   str(first(obj, brandKeys)),
		GenericName: str(first(obj, genericKeys)),
		Forms:       options(first(obj, []string{"forms", "form", "dosageForms"})),
		Strengths:   options(first(obj, []string{"strengths", "strength"})),
		Quantities:  options(first(obj, []string{"quantities", "quantity", "packageSizes"})),
	}
	if gsn, ok := parseInt(first(obj, gsnKeys)); ok {
		rec.GSN = gsn
	}
	if rec.BrandName == "" && rec.GenericName == "" && rec.GSN == 0 {
		return nil, nil
	}
	return rec, nil
}

// options reads a list of variants. Entries may be strings or objects; at
// most the first selected entry keeps its mark.
func options(list gjson.Result) types.DrugOptions {
	if !list.IsArray() {
		return nil
	}
	var out types.DrugOptions
	selected := false
	list.ForEach(func(_, item gjson.Result) bool {
		var opt types.DrugOption
		if item.IsObject() {
			opt.Label = str(first(item, labelKeys))
			if gsn, ok := parseInt(first(item, gsnKeys)); ok {
				opt.GSN = gsn
			}
			opt.Selected = parseBool(first(item, selectedKeys))
		} else {
			opt.Label = str(item)
		}
		if opt.Label == "" {
			return true
		}
		if opt.Selected {
			if selected {
				opt.Selected = false
			}
			selected = true
		}
		out = append(out, opt)
		return true
	})
	return out
}

// Names reads a drug-name list: an array of strings or {label,value}
// objects, optionally wrapped in an object, or a single {drugName}. Duplicates
// differing only in case or spacing are dropped, keeping the first spelling.
func Names(raw []byte) ([]string, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &types.SchemaError{Source: "names", Err: errInvalidJSON}
	}

	root := gjson.ParseBytes(raw)
	list := root
	if root.IsObject() {
		list = first(root, nameListKeys)
		// data may itself wrap the list
		if list.IsObject() {
			list = first(list, nameListKeys)
		}
	}

	var items []gjson.Result
	switch {
	case list.IsArray():
		items = list.Array()
	case root.IsObject():
		if single := first(root, []string{"drugName", "name"}); single.Exists() {
			items = []gjson.Result{single}
		}
	}

	seen := make(map[string]struct{}, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		name := str(item)
		if item.IsObject() {
			name = str(first(item, itemNameKeys))
		}
		key := matching.NormalizeDrugName(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// GSN reads a {gsn} lookup response, possibly inside a data/result envelope
// or as the first element of an array. It returns 0 when none is present.
func GSN(raw []byte) (int, error) {
	if !gjson.ValidBytes(raw) {
		return 0, &types.SchemaError{Source: "gsn", Err: errInvalidJSON}
	}

	root := gjson.ParseBytes(raw)
	if root.IsArray() {
		root = root.Get("0")
	}
	for _, c := range envelopes(root) {
		if c.IsArray() {
			c = c.Get("0")
		}
		if gsn, ok := parseInt(first(c, gsnKeys)); ok {
			return gsn, nil
		}
	}
	return 0, nil
}

func envelopes(root gjson.Result) []gjson.Result {
	out := []gjson.Result{root}
	for _, k := range wrapperKeys {
		if w := root.Get(k); w.Exists() {
			out = append(out, w)
		}
	}
	return out
}
