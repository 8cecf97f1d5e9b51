package commands

import (
	"encoding/json"
	"io"

	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
)

type instanceStatus struct {
	Name string `json:"instance_name"`
	ID   uint   `json:"instance_id"`
}

type groupStatus struct {
	GroupName    string           `json:"group_name"`
	InternalName string           `json:"internal_group_name"`
	Home         string           `json:"home_directory"`
	HostPath     string           `json:"host_artifacts_path"`
	ProductPath  string           `json:"product_out_path"`
	StartTime    string           `json:"start_time"`
	Instances    []instanceStatus `json:"instances"`
}

func newGroupStatus(g *instances.InstanceGroup, selected []*instances.Instance) groupStatus {
	s := groupStatus{
		GroupName:    g.GroupName(),
		InternalName: g.InternalGroupName(),
		Home:         g.HomeDirectory(),
		HostPath:     g.HostArtifactsPath(),
		ProductPath:  g.ProductOutPath(),
		StartTime:    g.StartTime().String(),
		Instances:    make([]instanceStatus, 0, len(selected)),
	}
	for _, i := range selected {
		s.Instances = append(s.Instances, instanceStatus{Name: i.Name(), ID: i.ID()})
	}
	return s
}

func writeJSON(out io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = out.Write(append(b, '\n'))
	return err
}
