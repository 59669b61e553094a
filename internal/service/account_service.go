package service

import (
	"context"

	"zenwallet/internal/ledger"
	"zenwallet/models"
)

func (s *ledgerServiceImpl) AddAccount(ctx context.Context, d models.AccountDraft) (models.Account, error) {
	var acc models.Account
	err := s.mutate(ctx, "AddAccount", func(b *ledger.Book) error {
		var err error
		acc, err = b.AddAccount(s.newID(), d)
		return err
	})
	if err != nil {
		return models.Account{}, err
	}
	s.logger.Info("account created", "id", acc.ID, "name", acc.Name, "currency", acc.Currency, "balance", acc.Balance.String())
	return acc, nil
}

func (s *ledgerServiceImpl) UpdateAccount(ctx context.Context, id string, d models.AccountDraft) (models.Account, error) {
	var acc models.Account
	err := s.mutate(ctx, "UpdateAccount", func(b *ledger.Book) error {
		var err error
		acc, err = b.UpdateAccount(id, d)
		return err
	})
	if err != nil {
		return models.Account{}, err
	}
	s.logger.Info("account updated", "id", id, "balance", acc.Balance.String())
	return acc, nil
}

func (s *ledgerServiceImpl) DeleteAccount(ctx context.Context, id string) error {
	err := s.mutate(ctx, "DeleteAccount", func(b *ledger.Book) error {
		return b.DeleteAccount(id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("account deleted", "id", id)
	return nil
}

func (s *ledgerServiceImpl) AddCategory(ctx context.Context, name string) (models.Category, error) {
	var cat models.Category
	err := s.mutate(ctx, "AddCategory", func(b *ledger.Book) error {
		var err error
		cat, err = b.AddCategory(s.newID(), name)
		return err
	})
	if err != nil {
		return models.Category{}, err
	}
	s.logger.Info("category created", "id", cat.ID, "name", cat.Name)
	return cat, nil
}

func (s *ledgerServiceImpl) AddSubCategory(ctx context.Context, categoryID, name string) (models.Category, error) {
	var cat models.Category
	err := s.mutate(ctx, "AddSubCategory", func(b *ledger.Book) error {
		var err error
		cat, err = b.AddSubCategory(categoryID, name)
		return err
	})
	if err != nil {
		return models.Category{}, err
	}
	s.logger.Info("sub-category created", "category", categoryID, "name", name)
	return cat, nil
}

func (s *ledgerServiceImpl) DeleteCategory(ctx context.Context, id string) error {
	err := s.mutate(ctx, "DeleteCategory", func(b *ledger.Book) error {
		return b.DeleteCategory(id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("category deleted", "id", id)
	return nil
}

func (s *ledgerServiceImpl) DeleteSubCategory(ctx context.Context, categoryID, name string) error {
	err := s.mutate(ctx, "DeleteSubCategory", func(b *ledger.Book) error {
		return b.DeleteSubCategory(categoryID, name)
	})
	if err != nil {
		return err
	}
	s.logger.Info("sub-category deleted", "category", categoryID, "name", name)
	return nil
}
