package api

import (
	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/ast"
)

// FileProcessListener observes the analysis of every file. Metric
// processors use it to compute per-run figures.
//
// OnProcess and OnProcessComplete may be called from several goroutines at
// once. OnStart and OnFinish are called once, before and after all files.
type FileProcessListener interface {
	ID() string
	OnStart(files []*ast.File)
	OnProcess(file *ast.File)
	OnProcessComplete(file *ast.File, findings map[string][]domain.Finding)
	OnFinish(files []*ast.File, result *domain.DetektionBuilder)
}

// NopListener implements FileProcessListener with empty methods. Embed it
// to implement only the callbacks you need.
type NopListener struct{}

func (NopListener) OnStart([]*ast.File)                                      {}
func (NopListener) OnProcess(*ast.File)                                      {}
func (NopListener) OnProcessComplete(*ast.File, map[string][]domain.Finding) {}
func (NopListener) OnFinish([]*ast.File, *domain.DetektionBuilder)           {}
