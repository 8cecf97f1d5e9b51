package instances

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Field names of the persisted group document.
const (
	jsonGroupName        = "Group Name"
	jsonHomeDir          = "Runtime/Home Dir"
	jsonHostArtifactPath = "Host Tools Dir"
	jsonProductOutPath   = "Product Out Dir"
	jsonStartTime        = "Start Time"
	jsonInstances        = "Instances"

	jsonInstanceName = "Instance Name"
	jsonInstanceID   = "Instance Id"
)

type instanceRecord struct {
	Name string `json:"Instance Name"`
	ID   string `json:"Instance Id"`
}

// groupRecord fixes the field order of serialized groups.
type groupRecord struct {
	GroupName         string           `json:"Group Name"`
	HomeDirectory     string           `json:"Runtime/Home Dir"`
	HostArtifactsPath string           `json:"Host Tools Dir"`
	ProductOutPath    string           `json:"Product Out Dir"`
	StartTime         string           `json:"Start Time,omitempty"`
	Instances         []instanceRecord `json:"Instances"`
	Parent            string           `json:"Parent Group"`
}

func newGroupRecord(g *InstanceGroup) groupRecord {
	r := groupRecord{
		GroupName:         g.name,
		HomeDirectory:     g.homeDirectory,
		HostArtifactsPath: g.hostArtifactsPath,
		ProductOutPath:    g.productOutPath,
		Instances:         make([]instanceRecord, 0, len(g.instances)),
	}
	if g.startTimeRecorded {
		r.StartTime = g.startTime.Serialize()
	}
	for _, i := range g.instances {
		r.Instances = append(r.Instances, instanceRecord{
			Name: i.name,
			ID:   strconv.FormatUint(uint64(i.id), 10),
		})
	}
	return r
}

// SerializeGroup encodes g as a group document. The start time is left out
// only when the group was loaded from a document that lacked a valid one.
func SerializeGroup(g *InstanceGroup) ([]byte, error) {
	data, err := json.Marshal(newGroupRecord(g))
	if err != nil {
		return nil, errors.Wrapf(err, "serializing group %q", g.name)
	}
	return data, nil
}

// DeserializeGroup decodes a group document and rebuilds the group through
// CreateInstanceGroup, so documents violating the group invariants fail to
// load. A missing or unparsable start time is replaced by the current time,
// which is kept out of the internal group name so the name survives reloads.
func DeserializeGroup(data []byte) (*InstanceGroup, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, err.Error())
	}

	var spec GroupSpec
	for _, f := range []struct {
		key string
		dst *string
	}{
		{jsonGroupName, &spec.Name},
		{jsonHomeDir, &spec.HomeDirectory},
		{jsonHostArtifactPath, &spec.HostArtifactsPath},
		{jsonProductOutPath, &spec.ProductOutPath},
	} {
		if *f.dst, err = requiredString(fields, f.key); err != nil {
			return nil, err
		}
	}

	spec.StartTime = Now()
	startTimeRecorded := false
	// Documents written before the start time was recorded lack the field.
	if raw, ok := fields[jsonStartTime]; ok {
		ts, err := decodeTimeStamp(raw)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"field": jsonStartTime,
				"group": spec.Name,
			}).Error("Start time restoration from json failed, using the current system time")
		} else {
			spec.StartTime = ts
			startTimeRecorded = true
		}
	}

	rawInstances, ok := fields[jsonInstances]
	if !ok {
		return nil, errors.Wrapf(ErrMalformedDocument, "missing field %q", jsonInstances)
	}
	var instanceObjects []json.RawMessage
	if err := json.Unmarshal(rawInstances, &instanceObjects); err != nil || instanceObjects == nil {
		return nil, errors.Wrapf(ErrMalformedDocument, "field %q is not an array", jsonInstances)
	}
	for n, rawInstance := range instanceObjects {
		is, err := decodeInstance(rawInstance)
		if err != nil {
			return nil, errors.Wrapf(err, "group %q instance #%d", spec.Name, n)
		}
		spec.Instances = append(spec.Instances, is)
	}

	return newInstanceGroup(spec, startTimeRecorded)
}

func decodeInstance(data []byte) (InstanceSpec, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return InstanceSpec{}, errors.Wrap(ErrMalformedDocument, err.Error())
	}
	name, err := requiredString(fields, jsonInstanceName)
	if err != nil {
		return InstanceSpec{}, err
	}
	raw, ok := fields[jsonInstanceID]
	if !ok {
		return InstanceSpec{}, errors.Wrapf(ErrMalformedDocument, "missing field %q", jsonInstanceID)
	}
	idText, err := scalarString(raw)
	if err != nil {
		return InstanceSpec{}, errors.Wrapf(ErrMalformedDocument, "field %q: %v", jsonInstanceID, err)
	}
	id, err := strconv.ParseUint(idText, 10, 32)
	if err != nil {
		return InstanceSpec{}, errors.Wrapf(ErrMalformedDocument, "invalid instance id %q in instance json", idText)
	}
	return InstanceSpec{ID: uint(id), Name: name}, nil
}

func decodeTimeStamp(raw json.RawMessage) (TimeStamp, error) {
	s, err := scalarString(raw)
	if err != nil {
		return 0, err
	}
	return ParseTimeStamp(s)
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("document is not an object")
	}
	return fields, nil
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", errors.Wrapf(ErrMalformedDocument, "missing field %q", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.Wrapf(ErrMalformedDocument, "field %q is not a string", key)
	}
	return s, nil
}

// scalarString returns the text of a JSON string or number.
func scalarString(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", errors.Errorf("expected a string or number, got %s", string(raw))
	}
}
