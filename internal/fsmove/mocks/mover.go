package mocks

import "github.com/stretchr/testify/mock"

// Mover is a mock implementation of fsmove.Mover.
type Mover struct {
	mock.Mock
}

func (m *Mover) Move(src, dst string) error {
	args := m.Called(src, dst)
	return args.Error(0)
}

func (m *Mover) Copy(src, dst string) error {
	args := m.Called(src, dst)
	return args.Error(0)
}

func (m *Mover) MkdirAll(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *Mover) RemoveAll(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *Mover) Exists(path string) (bool, error) {
	args := m.Called(path)
	return args.Bool(0), args.Error(1)
}

func (m *Mover) RemoveEmptyDirs(root string) error {
	args := m.Called(root)
	return args.Error(0)
}
