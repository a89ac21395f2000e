package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ConnectionTester --dir ../usecase --output usecase --outpkg usecasemock --filename connection_tester_mock.go
