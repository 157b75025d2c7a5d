// Package checker validates that a target model, a proposal model and the
// observed data agree in structure before any log-probability tree is built.
package checker

import (
	"github.com/roach88/alan/internal/fault"
	"github.com/roach88/alan/internal/model"
)

// Check verifies, at every plate level:
//   - the target names equal the proposal names plus the observed names
//   - observed names are single distributions in the target
//   - proposal distributions are target distributions with the same support
//   - proposal groups are target groups with the same members and supports
//   - proposal plates are target plates, checked recursively with their data
//
// The first violation is returned as a *fault.Error whose Path locates it.
func Check(target, proposal *model.Plate, data *model.Data) error {
	return checkPlate("", target, proposal, data)
}

func checkPlate(path string, target, proposal *model.Plate, data *model.Data) error {
	other := append(proposal.Names(), data.Observed()...)
	other = append(other, data.PlateNames()...)
	if err := fault.NameMismatch(path, target.Names(), other); err != nil {
		return err
	}

	for _, name := range data.Observed() {
		if _, ok := proposal.Entry(name); ok {
			return &fault.Error{
				Code:    fault.CodeStructure,
				Message: "name is both observed and drawn by the proposal",
				Path:    path,
				Name:    name,
			}
		}
		te, _ := target.Entry(name)
		if te.Kind() != model.KindDist {
			return fault.NewKindError(path, name, te.Kind().String(), "data")
		}
	}

	for _, name := range data.PlateNames() {
		te, _ := target.Entry(name)
		if te.Kind() != model.KindPlate {
			return fault.NewKindError(path, name, te.Kind().String(), "data plate")
		}
		if _, ok := proposal.Entry(name); ok {
			continue
		}
		// a plate holding only observed data
		if err := checkPlate(fault.JoinPath(path, name), te.Plate(), model.MustPlate(nil), data.Sub(name)); err != nil {
			return err
		}
	}

	for _, name := range proposal.Names() {
		qe, _ := proposal.Entry(name)
		te, _ := target.Entry(name)
		if te.Kind() != qe.Kind() {
			return fault.NewKindError(path, name, te.Kind().String(), qe.Kind().String())
		}

		switch qe.Kind() {
		case model.KindDist:
			if err := checkSupport(path, name, te.Dist(), qe.Dist()); err != nil {
				return err
			}
		case model.KindGroup:
			if err := checkGroup(fault.JoinPath(path, name), te.Group(), qe.Group()); err != nil {
				return err
			}
		case model.KindPlate:
			if err := checkPlate(fault.JoinPath(path, name), te.Plate(), qe.Plate(), data.Sub(name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkGroup(path string, target, proposal *model.Group) error {
	if err := fault.NameMismatch(path, target.Names(), proposal.Names()); err != nil {
		err.Message = "group members differ: " + err.Message
		return err
	}
	for _, name := range proposal.Names() {
		td, _ := target.Member(name)
		qd, _ := proposal.Member(name)
		if err := checkSupport(path, name, td, qd); err != nil {
			return err
		}
	}
	return nil
}

func checkSupport(path, name string, target, proposal model.Dist) error {
	if target.Support.Equal(proposal.Support) {
		return nil
	}
	return fault.NewSupportError(path, name, string(target.Support), string(proposal.Support))
}
