package tests

// taskServiceMock in tasks_test.go is kept by hand. To regenerate an
// expecter-style mock instead:
//
//go:generate mockery --name TaskService --dir ../../../../core/ports --output ./mocks --outpkg mocks --filename task_service_mock.go --with-expecter
