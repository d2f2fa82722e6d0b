package mocks

import (
	"go.uber.org/mock/gomock"
)

func SetupPageSource(t gomock.TestReporter) *MockPageSource {
	ctrl := gomock.NewController(t)
	return NewMockPageSource(ctrl)
}

func SetupSubmitter(t gomock.TestReporter) *MockSubmitter {
	ctrl := gomock.NewController(t)
	return NewMockSubmitter(ctrl)
}
