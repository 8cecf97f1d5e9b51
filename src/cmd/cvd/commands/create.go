package commands

import (
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	"github.com/linuxkit/cvd/src/cmd/cvd/selector"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var (
	getwd         = os.Getwd
	homeDirectory = selector.HomeDirectory
)

type createEnv struct {
	HostOut    string `env:"ANDROID_HOST_OUT"`
	ProductOut string `env:"ANDROID_PRODUCT_OUT"`
}

type createFlags struct {
	numInstances    uint
	baseInstanceNum uint32
	hostPath        string
	productPath     string
}

func newCreateFlags() (*pflag.FlagSet, *createFlags) {
	f := &createFlags{}
	fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.UintVar(&f.numInstances, "num_instances", 1, "Number of instances in the group")
	fs.Uint32Var(&f.baseInstanceNum, "base_instance_num", 0, "Id of the first instance, the rest follow consecutively. Defaults to $CUTTLEFISH_INSTANCE, else the lowest free ids")
	fs.StringVar(&f.hostPath, "host_path", "", "Host tools directory. Defaults to $ANDROID_HOST_OUT, else the working directory")
	fs.StringVar(&f.productPath, "product_path", "", "Product output directory. Defaults to $ANDROID_PRODUCT_OUT, else the host tools directory")
	return fs, f
}

// createHandler registers a new instance group. It only records the group;
// launching devices is left to the host tools.
type createHandler struct {
	subcommands
	db  *instances.InstanceDatabase
	out io.Writer
}

func (h *createHandler) Handle(req *CommandRequest) error {
	if !h.CanHandle(req) {
		return mismatch(h, req)
	}
	spec, err := h.groupSpec(req)
	if err != nil {
		return err
	}
	g, err := h.db.AddInstanceGroup(spec)
	if err != nil {
		return err
	}
	log.Infof("Created instance group %q with %d instance(s)", g.GroupName(), len(g.Instances()))
	return writeJSON(h.out, newGroupStatus(g, g.Instances()))
}

func (h *createHandler) groupSpec(req *CommandRequest) (instances.GroupSpec, error) {
	fs, f := newCreateFlags()
	if err := fs.Parse(req.Args()); err != nil {
		return instances.GroupSpec{}, errors.Wrap(err, "create")
	}
	if fs.NArg() > 0 {
		return instances.GroupSpec{}, errors.Errorf("create: unexpected arguments %q", fs.Args())
	}

	var e createEnv
	if err := env.ParseWithOptions(&e, env.Options{Environment: req.Envs()}); err != nil {
		return instances.GroupSpec{}, errors.Wrap(err, "create")
	}
	hostPath := f.hostPath
	if hostPath == "" {
		hostPath = e.HostOut
	}
	if hostPath == "" {
		wd, err := getwd()
		if err != nil {
			return instances.GroupSpec{}, errors.Wrap(err, "create: host tools directory")
		}
		hostPath = wd
	}
	productPath := f.productPath
	if productPath == "" {
		productPath = e.ProductOut
	}
	if productPath == "" {
		productPath = hostPath
	}

	names := req.Selectors().InstanceNames
	num := f.numInstances
	if len(names) > 0 {
		if fs.Changed("num_instances") && num != uint(len(names)) {
			return instances.GroupSpec{}, errors.Errorf("create: --num_instances=%d but %d instance names given", num, len(names))
		}
		num = uint(len(names))
	}
	if num == 0 {
		return instances.GroupSpec{}, errors.Wrap(instances.ErrEmptyGroup, "create")
	}

	base := uint(f.baseInstanceNum)
	if !fs.Changed("base_instance_num") {
		id, ok, err := selector.LegacyInstanceID(req.Envs())
		if err != nil {
			return instances.GroupSpec{}, err
		}
		if ok {
			base = id
		}
	}

	home, err := homeDirectory(req.Envs())
	if err != nil {
		return instances.GroupSpec{}, errors.Wrap(err, "create: home directory")
	}

	spec := instances.GroupSpec{
		Name:              req.Selectors().GroupName,
		HomeDirectory:     home,
		HostArtifactsPath: hostPath,
		ProductOutPath:    productPath,
	}
	for n := uint(0); n < num; n++ {
		var is instances.InstanceSpec
		if base > 0 {
			is.ID = base + n
		}
		if len(names) > 0 {
			is.Name = names[n]
		}
		spec.Instances = append(spec.Instances, is)
	}
	return spec, nil
}

func (h *createHandler) SummaryHelp() string { return "Register a new instance group" }

func (h *createHandler) DetailedHelp([]string) string {
	fs, _ := newCreateFlags()
	return `Usage: cvd create [--group_name=NAME] [--instance_name=NAME[,NAME...]] [flags]

Records a new instance group in the registry. Without --group_name the first
free of cvd, cvd_2, ... is used. Instance names default to their ids.

` + fs.FlagUsages()
}

func (h *createHandler) ShouldInterceptHelp() bool { return true }
