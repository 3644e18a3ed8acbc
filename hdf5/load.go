package hdf5

import (
	"fmt"

	"github.com/PrincetonUniversity/vicsek"
	"github.com/sbinet/go-hdf5"
)

// A Loader sequentially replays recorded frames from an HDF5 file.
type Loader struct {
	i uint // index of current frame
	n uint // total number of frames
	k uint // number of particles per frame

	pos []vicsek.Point // position buffer
	dir []float64      // heading buffer

	file   *hdf5.File
	posd   *hdf5.Dataset
	dird   *hdf5.Dataset
	posspc *hdf5.Dataspace
	dirspc *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// NewLoader opens the positions and headings datasets
// of a recorded run and returns an initialized loader.
func NewLoader(filepath string) (*Loader, error) {
	l := new(Loader)
	var err error
	l.file, err = hdf5.OpenFile(filepath, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}

	var pdims, hdims []uint
	l.posd, l.posspc, pdims, err = openFrames(l.file, "positions")
	if err != nil {
		checkClose(&err, l.file)
		return nil, err
	}
	l.dird, l.dirspc, hdims, err = openFrames(l.file, "headings")
	if err != nil {
		checkClose(&err, l.posspc)
		checkClose(&err, l.posd)
		checkClose(&err, l.file)
		return nil, err
	}
	if pdims[0] != hdims[0] || pdims[1] != hdims[1] {
		err = fmt.Errorf("loader: positions %v and headings %v dimensions do not match", pdims, hdims)
		checkClose(&err, l.dirspc)
		checkClose(&err, l.dird)
		checkClose(&err, l.posspc)
		checkClose(&err, l.posd)
		checkClose(&err, l.file)
		return nil, err
	}
	l.n, l.k = pdims[0], pdims[1]

	l.mspace, err = hdf5.CreateSimpleDataspace([]uint{l.k}, nil)
	if err != nil {
		checkClose(&err, l.dirspc)
		checkClose(&err, l.dird)
		checkClose(&err, l.posspc)
		checkClose(&err, l.posd)
		checkClose(&err, l.file)
		return nil, err
	}

	l.pos = make([]vicsek.Point, l.k)
	l.dir = make([]float64, l.k)

	return l, nil
}

// openFrames opens a dataset holding one row of particle values
// per step and selects its first row.
func openFrames(file *hdf5.File, name string) (*hdf5.Dataset, *hdf5.Dataspace, []uint, error) {
	dset, err := file.OpenDataset(name)
	if err != nil {
		return nil, nil, nil, err
	}
	fspace := dset.Space()
	dims, _, err := fspace.SimpleExtentDims()
	if err != nil {
		checkClose(&err, fspace)
		checkClose(&err, dset)
		return nil, nil, nil, err
	}
	if len(dims) != 2 {
		err = fmt.Errorf("loader: dataset %s: expected 2 dimensions, got %d", name, len(dims))
		checkClose(&err, fspace)
		checkClose(&err, dset)
		return nil, nil, nil, err
	}
	if err := fspace.SelectHyperslab([]uint{0, 0}, nil, []uint{1, dims[1]}, nil); err != nil {
		checkClose(&err, fspace)
		checkClose(&err, dset)
		return nil, nil, nil, err
	}
	return dset, fspace, dims, nil
}

// Steps returns the number of recorded frames.
func (l *Loader) Steps() int {
	return int(l.n)
}

// Particles returns the number of particles per frame.
func (l *Loader) Particles() int {
	return int(l.k)
}

// Load copies the next recorded frame into the model state
// and cycles when everything has already been loaded.
// The model must hold exactly Particles particles.
func (l *Loader) Load(m *vicsek.Model) error {
	start := []uint{l.i, 0}
	if err := l.posspc.SetOffset(start); err != nil {
		return err
	}
	if err := l.dirspc.SetOffset(start); err != nil {
		return err
	}
	l.i = (l.i + 1) % l.n

	if err := l.posd.ReadSubset(&l.pos, l.mspace, l.posspc); err != nil {
		return err
	}
	if err := l.dird.ReadSubset(&l.dir, l.mspace, l.dirspc); err != nil {
		return err
	}

	copy(m.Positions(), l.pos)
	copy(m.Headings(), l.dir)
	return nil
}

// Close closes the HDF5 file and all datasets and dataspaces of the loader.
func (l *Loader) Close() (err error) {
	checkClose(&err, l.mspace)
	checkClose(&err, l.dirspc)
	checkClose(&err, l.dird)
	checkClose(&err, l.posspc)
	checkClose(&err, l.posd)
	checkClose(&err, l.file)
	return err
}
