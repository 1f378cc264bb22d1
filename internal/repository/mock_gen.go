// internal/repository/mock_gen.go
package repository

//go:generate mockgen -source=./user.go -destination=../mocks/mock_user_repository.go -package=mocks UserRepositoryIface
//go:generate mockgen -source=./partner.go -destination=../mocks/mock_partner_repository.go -package=mocks PartnerRepositoryIface
//go:generate mockgen -source=./partner_department.go -destination=../mocks/mock_partner_department_repository.go -package=mocks PartnerDepartmentRepositoryIface
