package hdf5

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/PrincetonUniversity/vicsek"
	"github.com/sbinet/go-hdf5"
)

// A Dataset stipulates how to generate data and where to store them in the HDF5 file.
type Dataset struct {
	// Name is the name of the dataset in the HDF5 file.
	Name string

	// Val is a value of the same concrete type as the underlying type of the data.
	Val interface{}

	// Dims are the dimensions of the data for a single step.
	// Leave nil for one scalar value per step.
	Dims []int

	// Data is a function that produces the data
	// as a slice of row-major concrete values.
	Data func(m *vicsek.Model) interface{}

	dset   *hdf5.Dataset
	fspace *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// Config holds the parameters of the HDF5 driver.
type Config struct {
	Output   string      // path of output file
	Steps    int         // total number of steps
	Step     func()      // go to next step
	Attrs    interface{} // struct whose scalar fields annotate the config dataset
	Datasets []*Dataset  // list of datasets
}

// Run runs a simulation and saves data to an HDF5 file.
// Each dataset records one slice per step before the model advances,
// so the file holds the states at steps 0 to Steps-1.
func Run(m *vicsek.Model, conf *Config) (err error) {
	if err := os.MkdirAll(filepath.Dir(conf.Output), 0755); err != nil {
		return err
	}

	file, err := hdf5.CreateFile(conf.Output, hdf5.F_ACC_TRUNC)
	if err != nil {
		return err
	}
	defer checkClose(&err, file)

	if err := saveConfig(file, conf.Attrs); err != nil {
		return err
	}

	for _, d := range conf.Datasets {
		if err := d.init(file, conf); err != nil {
			return err
		}
		defer checkClose(&err, d)
	}

	for k := uint(0); k < uint(conf.Steps); k++ {
		for _, d := range conf.Datasets {
			start := make([]uint, len(d.Dims)+1)
			start[0] = k
			if err := d.fspace.SetOffset(start); err != nil {
				return err
			}
			if err := d.dset.WriteSubset(d.Data(m), d.mspace, d.fspace); err != nil {
				return err
			}
		}

		conf.Step()
	}
	return nil
}

// A sample is one tracked point of the order parameter trajectory.
// It is mapped to a compound datatype in HDF5 so member names are important.
type sample struct {
	Step  int
	Value float64
}

// WriteTrajectory adds the tracked order parameter trajectory
// to an existing HDF5 file as a "trajectory" dataset.
func WriteTrajectory(path string, t *vicsek.Trajectory) (err error) {
	rows := make([]sample, 0, t.Len())
	for _, s := range t.Steps() {
		v, _ := t.At(s)
		rows = append(rows, sample{Step: s, Value: v})
	}

	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDWR)
	if err != nil {
		return err
	}
	defer checkClose(&err, file)

	dtype, err := hdf5.NewDatatypeFromValue(sample{})
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	dspace, err := hdf5.CreateSimpleDataspace([]uint{uint(len(rows))}, nil)
	if err != nil {
		return err
	}
	defer checkClose(&err, dspace)

	dset, err := file.CreateDataset("trajectory", dtype, dspace)
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	return dset.Write(&rows)
}

// saveConfig creates a "config" dataset with a null dataspace whose attributes
// reflect the whole configuration plus some other appropriate metadata.
func saveConfig(file *hdf5.File, attrs interface{}) (err error) {
	null, err := hdf5.CreateDataspace(hdf5.S_NULL)
	if err != nil {
		return err
	}

	anytype, err := hdf5.NewDatatypeFromValue(0)
	if err != nil {
		return err
	}
	defer checkClose(&err, anytype)

	dset, err := file.CreateDataset("config", anytype, null)
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	strtype, err := hdf5.NewDatatypeFromValue("")
	if err != nil {
		return err
	}
	defer checkClose(&err, strtype)

	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}

	attr, err := dset.CreateAttribute("Time", strtype, scalar)
	if err != nil {
		return err
	}
	defer checkClose(&err, attr)

	now := time.Now().String()
	if err := attr.Write(&now, strtype); err != nil {
		return err
	}

	if attrs == nil {
		return nil
	}

	v := reflect.ValueOf(attrs)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	for i := 0; i < v.NumField(); i++ {
		val := scalarValue(v.Field(i))
		if val == nil {
			continue
		}
		name := v.Type().Field(i).Name
		err := func() (err error) {
			dtype, err := hdf5.NewDatatypeFromValue(reflect.ValueOf(val).Elem().Interface())
			if err != nil {
				return err
			}
			defer checkClose(&err, dtype)

			attr, err := dset.CreateAttribute(name, dtype, scalar)
			if err != nil {
				return err
			}
			defer checkClose(&err, attr)

			return attr.Write(val, dtype)
		}()
		if err != nil {
			return err
		}
	}

	return nil
}

// scalarValue returns a pointer to a writable copy of v,
// or nil if v has no scalar HDF5 representation.
// Booleans become 0 or 1 since HDF5 has no native boolean type.
func scalarValue(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Bool:
		var n int32
		if v.Bool() {
			n = 1
		}
		return &n
	case reflect.Int, reflect.Int64:
		n := v.Int()
		return &n
	case reflect.Float64:
		x := v.Float()
		return &x
	case reflect.String:
		s := v.String()
		return &s
	}
	return nil
}

// init creates the dataset, its file dataspace holding one slice per step,
// and the memory dataspace of a single slice.
func (d *Dataset) init(file *hdf5.File, conf *Config) error {
	dtype, err := hdf5.NewDatatypeFromValue(d.Val)
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	udims := make([]uint, len(d.Dims)+1)
	udims[0] = uint(conf.Steps)
	for i, n := range d.Dims {
		udims[i+1] = uint(n)
	}

	d.fspace, err = hdf5.CreateSimpleDataspace(udims, nil)
	if err != nil {
		return err
	}

	start := make([]uint, len(udims))
	count := make([]uint, len(udims))
	copy(count, udims)
	count[0] = 1

	if err := d.fspace.SelectHyperslab(start, nil, count, nil); err != nil {
		checkClose(&err, d.fspace)
		return err
	}

	if len(d.Dims) == 0 {
		d.mspace, err = hdf5.CreateDataspace(hdf5.S_SCALAR)
	} else {
		d.mspace, err = hdf5.CreateSimpleDataspace(udims[1:], nil)
	}
	if err != nil {
		checkClose(&err, d.fspace)
		return err
	}

	d.dset, err = file.CreateDataset(d.Name, dtype, d.fspace)
	if err != nil {
		checkClose(&err, d.fspace)
		checkClose(&err, d.mspace)
	}

	return err
}

// Close closes the HDF5 dataset and dataspaces.
func (d *Dataset) Close() error {
	if err := d.dset.Close(); err != nil {
		return err
	}
	if err := d.mspace.Close(); err != nil {
		return err
	}
	if err := d.fspace.Close(); err != nil {
		return err
	}
	return nil
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
