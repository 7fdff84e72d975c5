package form

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories_TableIsComplete(t *testing.T) {
	assert.Len(t, Categories, 19)

	codes := make(map[string]bool)
	fields := make(map[string]bool)
	for _, c := range Categories {
		assert.False(t, codes[c.Code], "duplicate code %s", c.Code)
		codes[c.Code] = true
		for _, f := range []string{c.FlagField, c.ListField} {
			assert.False(t, fields[f], "duplicate field %s", f)
			fields[f] = true
		}
	}

	c, ok := LookupCategory("fire_hazard")
	require.True(t, ok)
	assert.Equal(t, "FireHazardIssues", c.FlagField)
	assert.Equal(t, "Fire Hazard", c.ListField)

	_, ok = LookupCategory("asbestos")
	assert.False(t, ok)
}

func TestName_FullName(t *testing.T) {
	tests := []struct {
		name string
		in   Name
		want string
	}{
		{name: "explicit full name wins", in: Name{First: "Jane", Last: "Doe", FirstAndLast: "Jane Q. Doe"}, want: "Jane Q. Doe"},
		{name: "joined first and last", in: Name{First: "Jane", Last: "Doe"}, want: "Jane Doe"},
		{name: "first only", in: Name{First: " Jane "}, want: "Jane"},
		{name: "last only", in: Name{Last: "Doe"}, want: "Doe"},
		{name: "nothing falls back", in: Name{}, want: UnknownDefendantName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.FullName(UnknownDefendantName))
		})
	}

	assert.True(t, Name{FirstAndLast: "  "}.IsEmpty())
	assert.False(t, Name{Last: "Doe"}.IsEmpty())
}

func TestDiscovery_MarshalDefaults(t *testing.T) {
	data, err := json.Marshal(NewDiscovery())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Len(t, decoded, 1+2*len(Categories))
	assert.Nil(t, decoded["Unit"])
	for _, c := range Categories {
		assert.Equal(t, false, decoded[c.FlagField], c.FlagField)
		assert.Equal(t, []interface{}{}, decoded[c.ListField], c.ListField)
	}
}

func TestDiscovery_MarshalOrderFollowsTable(t *testing.T) {
	d := NewDiscovery()
	unit := "4B"
	d.Unit = &unit
	d.Select("plumbing", "Leaky Faucet")
	d.Select("vermin", "Rats/Mice")

	data, err := json.Marshal(d)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, `{"Unit":"4B","VerminIssues":true,"Vermin":["Rats/Mice"],"InsectIssues":false,"Insects":[]`), out)
	assert.Contains(t, out, `"PlumbingIssues":true,"Plumbing":["Leaky Faucet"]`)
	assert.Less(t, strings.Index(out, `"Vermin"`), strings.Index(out, `"Plumbing"`))
	assert.True(t, strings.HasSuffix(out, `"NoticesIssues":false,"Notices":[]}`), out)
}

func TestDiscovery_Unmarshal(t *testing.T) {
	input := `{
		"Unit": "12",
		"VerminIssues": true,
		"Vermin": ["Rats/Mice", "Bats"],
		"Fire Hazard": null,
		"Plumbing": [],
		"InsectIssues": true,
		"HVACIssues": "yes",
		"ElectricalIssues": false,
		"Electrical": ["Outlets"],
		"Something Else": [1, 2]
	}`

	var d Discovery
	require.NoError(t, json.Unmarshal([]byte(input), &d))

	require.NotNil(t, d.Unit)
	assert.Equal(t, "12", *d.Unit)
	assert.Equal(t, []string{"Rats/Mice", "Bats"}, d.Options("vermin"))
	assert.True(t, d.Flags["vermin"])
	assert.Empty(t, d.Options("fire_hazard"))
	assert.Empty(t, d.Options("plumbing"))
	assert.Empty(t, d.Options("insects"))

	// Flags follow the lists; flags sent on input are ignored.
	assert.False(t, d.Flags["insects"])
	assert.False(t, d.Flags["hvac"])
	assert.False(t, d.Flags["plumbing"])
	assert.True(t, d.Flags["electrical"])
	assert.Equal(t, []string{"Outlets"}, d.Options("electrical"))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"InsectIssues":false,"Insects":[]`)
}

func TestDiscovery_UnmarshalRejectsMalformedLists(t *testing.T) {
	var d Discovery
	err := json.Unmarshal([]byte(`{"Vermin": "Rats"}`), &d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Vermin")

	err = json.Unmarshal([]byte(`["not", "an", "object"]`), &d)
	require.Error(t, err)
}

func TestSubmission_NullDiscovery(t *testing.T) {
	input := `{
		"Form": {"InternalName": "habitability-v1", "Name": "Habitability Complaint"},
		"PlaintiffDetails": [{"ItemNumber": 1, "Name": {"First": "Jane", "Last": "Doe"}, "Discovery": null}],
		"DefendantDetails": [{"ItemNumber": 1, "Name": {}}]
	}`

	var s Submission
	require.NoError(t, json.Unmarshal([]byte(input), &s))

	require.Len(t, s.Plaintiffs, 1)
	assert.Nil(t, s.Plaintiffs[0].Discovery)
	assert.Nil(t, s.Address)
	assert.Equal(t, "habitability-v1", s.Form.InternalName)
}
