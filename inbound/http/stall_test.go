package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stall-booking/common/constant"
	"stall-booking/common/vars"
	"stall-booking/model"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/suite"
)

type StallHttpTestSuite struct {
	suite.Suite

	RedisMock redismock.ClientMock
	mux       *http.ServeMux
}

func (s *StallHttpTestSuite) SetupTest() {
	cache, redisMock := redismock.NewClientMock()
	s.RedisMock = redisMock

	s.mux = http.NewServeMux()
	RegisterStallHttp(s.mux, cache)

	vars.SetStalls(map[int64][]model.StallResponse{
		7: {
			{Id: 12, Number: "S-12", Status: constant.StallStatusAvailable, Price: 5000},
			{Id: 13, Number: "S-13", Status: constant.StallStatusBooked, Price: 7500},
		},
	})
}

func TestStallHttpTestSuite(t *testing.T) {
	suite.Run(t, new(StallHttpTestSuite))
}

func (s *StallHttpTestSuite) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *StallHttpTestSuite) TestList() {
	s.Run("invalid exhibition id", func() {
		rec := s.get("/api/exhibitions/abc/stalls")

		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown exhibition", func() {
		rec := s.get("/api/exhibitions/99/stalls")

		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("lists the snapshot with the cached count", func() {
		s.RedisMock.ExpectGet(fmt.Sprintf(constant.ExhibitionAvailableStallsKey, int64(7))).SetVal("1")

		rec := s.get("/api/exhibitions/7/stalls")

		s.Equal(http.StatusOK, rec.Code)

		var resp model.ListStallsResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal(int64(7), resp.ExhibitionId)
		s.Equal(int64(1), resp.AvailableCount)
		s.Require().Len(resp.Stalls, 2)
		s.Equal("S-12", resp.Stalls[0].Number)
	})

	s.Run("cache miss degrades to a zero count", func() {
		s.SetupTest()

		rec := s.get("/api/exhibitions/7/stalls")

		s.Equal(http.StatusOK, rec.Code)

		var resp model.ListStallsResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal(int64(0), resp.AvailableCount)
		s.Len(resp.Stalls, 2)
	})
}
